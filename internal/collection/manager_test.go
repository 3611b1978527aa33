package collection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentara/internal/model"
)

type mockCollectionGateway struct {
	listWithItemsFn func(ctx context.Context, identityID string) ([]model.Collection, error)
	createFn        func(ctx context.Context, identityID, name string, description *string) (*model.Collection, error)
	createDefaultFn func(ctx context.Context, identityID, name string) (*model.Collection, error)
	updateFn        func(ctx context.Context, id string, patch model.CollectionPatch) (*model.Collection, error)
	listItemsFn     func(ctx context.Context, collectionID string) ([]model.CollectionItem, error)
	findItemFn      func(ctx context.Context, collectionID string, perfumeID int64) (*model.CollectionItem, error)
	addItemFn       func(ctx context.Context, item *model.CollectionItem) (*model.CollectionItem, error)
	removeItemFn    func(ctx context.Context, itemID string) error

	mu              sync.Mutex
	defaultsCreated []string
	removed         []string
}

func (m *mockCollectionGateway) ListWithItems(ctx context.Context, identityID string) ([]model.Collection, error) {
	if m.listWithItemsFn != nil {
		return m.listWithItemsFn(ctx, identityID)
	}
	return nil, nil
}

func (m *mockCollectionGateway) Create(ctx context.Context, identityID, name string, description *string) (*model.Collection, error) {
	if m.createFn != nil {
		return m.createFn(ctx, identityID, name, description)
	}
	return &model.Collection{ID: "c-new", UserID: identityID, Name: name, Description: description}, nil
}

func (m *mockCollectionGateway) CreateDefault(ctx context.Context, identityID, name string) (*model.Collection, error) {
	m.mu.Lock()
	m.defaultsCreated = append(m.defaultsCreated, name)
	m.mu.Unlock()
	if m.createDefaultFn != nil {
		return m.createDefaultFn(ctx, identityID, name)
	}
	return &model.Collection{ID: "c-" + name, UserID: identityID, Name: name, IsDefault: true}, nil
}

func (m *mockCollectionGateway) Update(ctx context.Context, id string, patch model.CollectionPatch) (*model.Collection, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, model.ErrCollectionNotFound
}

func (m *mockCollectionGateway) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockCollectionGateway) ListItems(ctx context.Context, collectionID string) ([]model.CollectionItem, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, collectionID)
	}
	return nil, nil
}

func (m *mockCollectionGateway) FindItem(ctx context.Context, collectionID string, perfumeID int64) (*model.CollectionItem, error) {
	if m.findItemFn != nil {
		return m.findItemFn(ctx, collectionID, perfumeID)
	}
	return nil, model.ErrCollectionItemNotFound
}

func (m *mockCollectionGateway) AddItem(ctx context.Context, item *model.CollectionItem) (*model.CollectionItem, error) {
	if m.addItemFn != nil {
		return m.addItemFn(ctx, item)
	}
	return item, nil
}

func (m *mockCollectionGateway) RemoveItem(ctx context.Context, itemID string) error {
	if m.removeItemFn != nil {
		if err := m.removeItemFn(ctx, itemID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.removed = append(m.removed, itemID)
	m.mu.Unlock()
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestList_ReturnsExisting(t *testing.T) {
	gw := &mockCollectionGateway{
		listWithItemsFn: func(context.Context, string) ([]model.Collection, error) {
			return []model.Collection{{ID: "c-1", Name: "My Collection", IsDefault: true}}, nil
		},
	}
	m := NewManager(gw, testLogger())

	collections, err := m.List(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Empty(t, gw.defaultsCreated)
}

func TestList_CreatesDefaultsForNewIdentity(t *testing.T) {
	gw := &mockCollectionGateway{
		listWithItemsFn: func(context.Context, string) ([]model.Collection, error) {
			return []model.Collection{}, nil
		},
	}
	m := NewManager(gw, testLogger())

	collections, err := m.List(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, model.DefaultCollectionName, collections[0].Name)
	assert.Equal(t, model.DefaultWishlistName, collections[1].Name)
	assert.Equal(t, []string{model.DefaultCollectionName, model.DefaultWishlistName}, gw.defaultsCreated)
}

func TestList_DefaultCreationFailureDegradesToEmpty(t *testing.T) {
	gw := &mockCollectionGateway{
		listWithItemsFn: func(context.Context, string) ([]model.Collection, error) {
			return nil, nil
		},
		createDefaultFn: func(context.Context, string, string) (*model.Collection, error) {
			return nil, errors.New("insert failed")
		},
	}
	m := NewManager(gw, testLogger())

	collections, err := m.List(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, collections)
}

func TestCreate_TrimsAndRejectsEmptyName(t *testing.T) {
	m := NewManager(&mockCollectionGateway{}, testLogger())
	ctx := context.Background()

	c, err := m.Create(ctx, "user-1", "  Summer Picks  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Summer Picks", c.Name)

	_, err = m.Create(ctx, "user-1", "   ", nil)
	assert.ErrorIs(t, err, model.ErrEmptyCollectionName)
}

func TestUpdate_RejectsBlankName(t *testing.T) {
	m := NewManager(&mockCollectionGateway{}, testLogger())

	blank := "   "
	_, err := m.Update(context.Background(), "c-1", model.CollectionPatch{Name: &blank})

	assert.ErrorIs(t, err, model.ErrEmptyCollectionName)
}

func TestAddItem_DuplicateFromPreCheck(t *testing.T) {
	gw := &mockCollectionGateway{
		findItemFn: func(context.Context, string, int64) (*model.CollectionItem, error) {
			return &model.CollectionItem{ID: "i-1"}, nil
		},
	}
	m := NewManager(gw, testLogger())

	_, err := m.AddItem(context.Background(), "c-1", &model.Perfume{ID: 7, Name: "Aventus"}, nil)

	assert.ErrorIs(t, err, model.ErrDuplicateItem)
}

func TestAddItem_DuplicateFromBackendIndex(t *testing.T) {
	gw := &mockCollectionGateway{
		addItemFn: func(context.Context, *model.CollectionItem) (*model.CollectionItem, error) {
			return nil, model.ErrDuplicateItem
		},
	}
	m := NewManager(gw, testLogger())

	_, err := m.AddItem(context.Background(), "c-1", &model.Perfume{ID: 7, Name: "Aventus"}, nil)

	assert.ErrorIs(t, err, model.ErrDuplicateItem)
}

func TestAddItem_SnapshotsDisplayFields(t *testing.T) {
	var captured *model.CollectionItem
	gw := &mockCollectionGateway{
		addItemFn: func(_ context.Context, item *model.CollectionItem) (*model.CollectionItem, error) {
			captured = item
			return item, nil
		},
	}
	m := NewManager(gw, testLogger())

	brand := "Creed"
	image := "https://img.example/aventus.jpg"
	note := "birthday gift idea"
	_, err := m.AddItem(context.Background(), "c-1", &model.Perfume{
		ID:       7,
		Name:     "Aventus",
		Brand:    &brand,
		ImageURL: &image,
	}, &note)

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "Aventus", captured.PerfumeName)
	assert.Equal(t, &brand, captured.PerfumeBrand)
	assert.Equal(t, &image, captured.ImageURL)
	assert.Equal(t, &note, captured.Note)
}

func TestRemoveItems_AllSucceed(t *testing.T) {
	gw := &mockCollectionGateway{}
	m := NewManager(gw, testLogger())

	result := m.RemoveItems(context.Background(), []string{"i-1", "i-2", "i-3"})

	assert.True(t, result.AllRemoved())
	assert.ElementsMatch(t, []string{"i-1", "i-2", "i-3"}, result.Removed)
	assert.Empty(t, result.Failed)
}

func TestRemoveItems_PartialFailureIsAggregated(t *testing.T) {
	boom := errors.New("delete failed")
	gw := &mockCollectionGateway{
		removeItemFn: func(_ context.Context, itemID string) error {
			if itemID == "i-2" {
				return boom
			}
			return nil
		},
	}
	m := NewManager(gw, testLogger())

	result := m.RemoveItems(context.Background(), []string{"i-1", "i-2", "i-3"})

	assert.False(t, result.AllRemoved())
	assert.ElementsMatch(t, []string{"i-1", "i-3"}, result.Removed)
	require.Contains(t, result.Failed, "i-2")
	assert.ErrorIs(t, result.Failed["i-2"], boom)
	assert.ElementsMatch(t, []string{"i-1", "i-3"}, gw.removed)
}

func TestRemoveItems_EmptyBatch(t *testing.T) {
	m := NewManager(&mockCollectionGateway{}, testLogger())

	result := m.RemoveItems(context.Background(), nil)

	assert.True(t, result.AllRemoved())
	assert.Empty(t, result.Removed)
}
