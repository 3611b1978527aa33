package gateway

import (
	"context"
	"errors"
	"fmt"

	"scentara/internal/model"
	"scentara/internal/supabase"
)

const perfumesTable = "perfumes"

type catalogGateway struct {
	client *supabase.Client
}

func NewCatalogGateway(client *supabase.Client) CatalogGateway {
	return &catalogGateway{client: client}
}

func (g *catalogGateway) GetPerfume(ctx context.Context, id int64) (*model.Perfume, error) {
	resp, err := g.client.From(perfumesTable).
		Select("*").
		Eq("id", id).
		Single().
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get perfume: %w", err)
	}
	if err := resp.Err(); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, model.ErrPerfumeNotFound
		}
		return nil, fmt.Errorf("get perfume: %w", err)
	}

	var p model.Perfume
	if err := resp.JSON(&p); err != nil {
		return nil, fmt.Errorf("decode perfume: %w", err)
	}
	return &p, nil
}

func (g *catalogGateway) ListPerfumes(ctx context.Context, limit int, orderBy string, descending bool) ([]model.Perfume, error) {
	q := g.client.From(perfumesTable).Select("*").Limit(limit)
	if orderBy != "" {
		q = q.Order(orderBy, !descending)
	}

	resp, err := q.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list perfumes: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("list perfumes: %w", err)
	}

	var perfumes []model.Perfume
	if err := resp.JSON(&perfumes); err != nil {
		return nil, fmt.Errorf("decode perfumes: %w", err)
	}
	return perfumes, nil
}

func (g *catalogGateway) SearchPerfumes(ctx context.Context, nameSubstring string, limit int) ([]model.Perfume, error) {
	resp, err := g.client.From(perfumesTable).
		Select("*").
		ILike("name", "*"+nameSubstring+"*").
		Limit(limit).
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("search perfumes: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("search perfumes: %w", err)
	}

	var perfumes []model.Perfume
	if err := resp.JSON(&perfumes); err != nil {
		return nil, fmt.Errorf("decode perfumes: %w", err)
	}
	return perfumes, nil
}
