package gateway

import (
	"context"
	"errors"
	"fmt"

	"scentara/internal/model"
	"scentara/internal/supabase"
)

const profilesTable = "profiles"

type profileGateway struct {
	client *supabase.Client
}

func NewProfileGateway(client *supabase.Client) ProfileGateway {
	return &profileGateway{client: client}
}

func (g *profileGateway) Get(ctx context.Context, identityID string) (*model.Profile, error) {
	resp, err := g.client.From(profilesTable).
		Select("*").
		Eq("id", identityID).
		Single().
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := resp.Err(); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var p model.Profile
	if err := resp.JSON(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (g *profileGateway) Create(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	payload := map[string]any{
		"id":       profile.ID,
		"username": profile.Username,
		"gender":   profile.Gender,
		"age":      profile.Age,
		"country":  profile.Country,
	}

	resp, err := g.client.From(profilesTable).Insert(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	if err := resp.Err(); err != nil {
		if errors.Is(err, supabase.ErrConflict) {
			return nil, model.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	return decodeSingleRow[model.Profile](resp, "profile")
}

func (g *profileGateway) Update(ctx context.Context, identityID string, patch model.ProfilePatch) (*model.Profile, error) {
	resp, err := g.client.From(profilesTable).
		Eq("id", identityID).
		Update(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := resp.Err(); err != nil {
		if errors.Is(err, supabase.ErrConflict) {
			return nil, model.ErrUsernameTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return decodeSingleRow[model.Profile](resp, "profile")
}

func (g *profileGateway) UsernameAvailable(ctx context.Context, username, excludeIdentityID string) (bool, error) {
	q := g.client.From(profilesTable).
		Select("id").
		Eq("username", username).
		Limit(1)
	if excludeIdentityID != "" {
		q = q.Neq("id", excludeIdentityID)
	}

	resp, err := q.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	if err := resp.Err(); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := resp.JSON(&rows); err != nil {
		return false, fmt.Errorf("decode username check: %w", err)
	}
	return len(rows) == 0, nil
}

// decodeSingleRow unpacks the representation PostgREST returns for writes,
// which is always an array even for a single affected row.
func decodeSingleRow[T any](resp *supabase.Response, what string) (*T, error) {
	var rows []T
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("decode %s: empty representation", what)
	}
	return &rows[0], nil
}
