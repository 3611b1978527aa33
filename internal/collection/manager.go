// Package collection implements the membership workflow over a user's named
// collections: listing with derived counts, default-collection bootstrap,
// duplicate-safe adds, and aggregated batch removal.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"scentara/internal/gateway"
	"scentara/internal/model"
)

type Manager struct {
	collections gateway.CollectionGateway
	log         *slog.Logger
}

func NewManager(collections gateway.CollectionGateway, logger *slog.Logger) *Manager {
	return &Manager{
		collections: collections,
		log:         logger,
	}
}

// List returns the identity's collections with item counts and sample
// thumbnails. An identity observed with zero collections gets the two
// defaults created on the spot.
func (m *Manager) List(ctx context.Context, identityID string) ([]model.Collection, error) {
	collections, err := m.collections.ListWithItems(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	if len(collections) == 0 {
		return m.ensureDefaults(ctx, identityID), nil
	}
	return collections, nil
}

// ensureDefaults inserts "My Collection" and "Wishlist". Creation is best
// effort: a failure degrades to an empty list instead of an error, and the
// next list call retries.
func (m *Manager) ensureDefaults(ctx context.Context, identityID string) []model.Collection {
	defaults := make([]model.Collection, 0, 2)
	for _, name := range []string{model.DefaultCollectionName, model.DefaultWishlistName} {
		c, err := m.collections.CreateDefault(ctx, identityID, name)
		if err != nil {
			m.log.Warn("failed to create default collection", "name", name, "error", err)
			return []model.Collection{}
		}
		defaults = append(defaults, *c)
	}
	return defaults
}

// Create adds a new named collection. Names are trimmed and must be
// non-empty; there is no uniqueness constraint on names.
func (m *Manager) Create(ctx context.Context, identityID, name string, description *string) (*model.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrEmptyCollectionName
	}

	c, err := m.collections.Create(ctx, identityID, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return c, nil
}

// Update renames or re-describes a collection. A provided name must remain
// non-empty after trimming; a nil field is left unchanged.
func (m *Manager) Update(ctx context.Context, id string, patch model.CollectionPatch) (*model.Collection, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, model.ErrEmptyCollectionName
		}
		patch.Name = &trimmed
	}

	c, err := m.collections.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}
	return c, nil
}

// Items returns the membership rows of one collection.
func (m *Manager) Items(ctx context.Context, collectionID string) ([]model.CollectionItem, error) {
	items, err := m.collections.ListItems(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// AddItem attaches a perfume to a collection with a denormalized display
// snapshot. The existence pre-check gives a fast duplicate answer; the
// backend's unique index is the authoritative one, and the gateway maps its
// violation to the same sentinel, so a concurrent add from another device
// cannot slip a second row in between the check and the insert.
func (m *Manager) AddItem(ctx context.Context, collectionID string, perfume *model.Perfume, note *string) (*model.CollectionItem, error) {
	_, err := m.collections.FindItem(ctx, collectionID, perfume.ID)
	if err == nil {
		return nil, model.ErrDuplicateItem
	}
	if !errors.Is(err, model.ErrCollectionItemNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	item := &model.CollectionItem{
		CollectionID: collectionID,
		PerfumeID:    perfume.ID,
		PerfumeName:  perfume.Name,
		PerfumeBrand: perfume.Brand,
		ImageURL:     perfume.ImageURL,
		Note:         note,
	}

	created, err := m.collections.AddItem(ctx, item)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateItem) {
			return nil, model.ErrDuplicateItem
		}
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	return created, nil
}

// BatchResult aggregates per-item outcomes of a batch removal. Callers apply
// only the confirmed removals to their local state and surface the failed
// subset to the user.
type BatchResult struct {
	Removed []string
	Failed  map[string]error
}

// AllRemoved reports whether every requested item was deleted.
func (r *BatchResult) AllRemoved() bool {
	return len(r.Failed) == 0
}

// RemoveItems deletes the given membership rows as independent parallel
// requests and collects each outcome instead of failing the whole batch.
func (m *Manager) RemoveItems(ctx context.Context, itemIDs []string) *BatchResult {
	outcomes := make([]error, len(itemIDs))

	var g errgroup.Group
	for i, id := range itemIDs {
		i, id := i, id
		g.Go(func() error {
			outcomes[i] = m.collections.RemoveItem(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{Failed: make(map[string]error)}
	for i, id := range itemIDs {
		if outcomes[i] != nil {
			m.log.Warn("failed to remove item", "item_id", id, "error", outcomes[i])
			result.Failed[id] = outcomes[i]
			continue
		}
		result.Removed = append(result.Removed, id)
	}
	return result
}
