package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"scentara/internal/model"
	"scentara/internal/supabase"
)

const (
	collectionsTable     = "collections"
	collectionItemsTable = "collection_items"

	maxSampleImages = 4
)

type collectionGateway struct {
	client *supabase.Client
}

func NewCollectionGateway(client *supabase.Client) CollectionGateway {
	return &collectionGateway{client: client}
}

// collectionRow is the embedded-resource shape returned by selecting
// collections together with their membership rows in one query.
type collectionRow struct {
	model.Collection
	Items []model.CollectionItem `json:"collection_items"`
}

func (g *collectionGateway) ListWithItems(ctx context.Context, identityID string) ([]model.Collection, error) {
	resp, err := g.client.From(collectionsTable).
		Select("*,collection_items(id,perfume_id,image_url,created_at)").
		Eq("user_id", identityID).
		Order("is_default", false).
		Order("created_at", true).
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var rows []collectionRow
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("decode collections: %w", err)
	}

	collections := make([]model.Collection, 0, len(rows))
	for _, row := range rows {
		collections = append(collections, project(row))
	}
	return collections, nil
}

// project computes the read-time fields from the joined membership rows:
// item count and up to four sample thumbnails.
func project(row collectionRow) model.Collection {
	c := row.Collection
	c.ItemCount = len(row.Items)
	c.SampleImages = nil
	for _, item := range row.Items {
		if len(c.SampleImages) == maxSampleImages {
			break
		}
		if item.ImageURL != nil && *item.ImageURL != "" {
			c.SampleImages = append(c.SampleImages, *item.ImageURL)
		}
	}
	return c
}

func (g *collectionGateway) Create(ctx context.Context, identityID, name string, description *string) (*model.Collection, error) {
	return g.insert(ctx, identityID, name, description, false)
}

func (g *collectionGateway) CreateDefault(ctx context.Context, identityID, name string) (*model.Collection, error) {
	return g.insert(ctx, identityID, name, nil, true)
}

func (g *collectionGateway) insert(ctx context.Context, identityID, name string, description *string, isDefault bool) (*model.Collection, error) {
	payload := map[string]any{
		"id":          uuid.NewString(),
		"user_id":     identityID,
		"name":        name,
		"description": description,
		"is_default":  isDefault,
	}

	resp, err := g.client.From(collectionsTable).Insert(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return decodeSingleRow[model.Collection](resp, "collection")
}

func (g *collectionGateway) Update(ctx context.Context, id string, patch model.CollectionPatch) (*model.Collection, error) {
	resp, err := g.client.From(collectionsTable).
		Eq("id", id).
		Update(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}

	return decodeSingleRow[model.Collection](resp, "collection")
}

func (g *collectionGateway) Delete(ctx context.Context, id string) error {
	resp, err := g.client.From(collectionsTable).
		Eq("id", id).
		Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

func (g *collectionGateway) ListItems(ctx context.Context, collectionID string) ([]model.CollectionItem, error) {
	resp, err := g.client.From(collectionItemsTable).
		Select("*").
		Eq("collection_id", collectionID).
		Order("created_at", false).
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collection items: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("list collection items: %w", err)
	}

	var items []model.CollectionItem
	if err := resp.JSON(&items); err != nil {
		return nil, fmt.Errorf("decode collection items: %w", err)
	}
	return items, nil
}

func (g *collectionGateway) FindItem(ctx context.Context, collectionID string, perfumeID int64) (*model.CollectionItem, error) {
	resp, err := g.client.From(collectionItemsTable).
		Select("*").
		Eq("collection_id", collectionID).
		Eq("perfume_id", perfumeID).
		Limit(1).
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("find collection item: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("find collection item: %w", err)
	}

	var items []model.CollectionItem
	if err := resp.JSON(&items); err != nil {
		return nil, fmt.Errorf("decode collection item: %w", err)
	}
	if len(items) == 0 {
		return nil, model.ErrCollectionItemNotFound
	}
	return &items[0], nil
}

func (g *collectionGateway) AddItem(ctx context.Context, item *model.CollectionItem) (*model.CollectionItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	payload := map[string]any{
		"id":            item.ID,
		"collection_id": item.CollectionID,
		"perfume_id":    item.PerfumeID,
		"perfume_name":  item.PerfumeName,
		"perfume_brand": item.PerfumeBrand,
		"image_url":     item.ImageURL,
		"note":          item.Note,
	}

	resp, err := g.client.From(collectionItemsTable).Insert(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("add collection item: %w", err)
	}
	if err := resp.Err(); err != nil {
		// The unique index on (collection_id, perfume_id) is the
		// authoritative duplicate check; the manager's pre-check only
		// exists for a friendlier fast path.
		if errors.Is(err, supabase.ErrConflict) {
			return nil, model.ErrDuplicateItem
		}
		return nil, fmt.Errorf("add collection item: %w", err)
	}

	return decodeSingleRow[model.CollectionItem](resp, "collection item")
}

func (g *collectionGateway) RemoveItem(ctx context.Context, itemID string) error {
	resp, err := g.client.From(collectionItemsTable).
		Eq("id", itemID).
		Delete(ctx)
	if err != nil {
		return fmt.Errorf("remove collection item: %w", err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("remove collection item: %w", err)
	}
	return nil
}
