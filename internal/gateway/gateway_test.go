package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentara/internal/model"
	"scentara/internal/supabase"
	"scentara/internal/suptest"
)

func newBackend(t *testing.T) (*suptest.Server, *supabase.Client) {
	t.Helper()
	server := suptest.NewServer()
	t.Cleanup(server.Close)

	client, err := supabase.New(supabase.Config{
		URL:     server.URL(),
		AnonKey: "test-anon-key",
	})
	require.NoError(t, err)
	return server, client
}

func strPtr(s string) *string { return &s }

func seedCatalog(server *suptest.Server) {
	server.SeedPerfumes([]model.Perfume{
		{ID: 1, Name: "Aventus", Brand: strPtr("Creed"), ImageURL: strPtr("https://img.example/1.jpg")},
		{ID: 2, Name: "Rose of No Man's Land", Brand: strPtr("Byredo")},
		{ID: 3, Name: "Delina", Brand: strPtr("Parfums de Marly")},
	})
}

func TestCatalogGateway_GetPerfume(t *testing.T) {
	server, client := newBackend(t)
	seedCatalog(server)
	catalog := NewCatalogGateway(client)

	p, err := catalog.GetPerfume(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Aventus", p.Name)

	_, err = catalog.GetPerfume(context.Background(), 999)
	assert.ErrorIs(t, err, model.ErrPerfumeNotFound)
}

func TestCatalogGateway_SearchPerfumes(t *testing.T) {
	server, client := newBackend(t)
	seedCatalog(server)
	catalog := NewCatalogGateway(client)

	perfumes, err := catalog.SearchPerfumes(context.Background(), "rose", 50)
	require.NoError(t, err)
	require.Len(t, perfumes, 1)
	assert.Equal(t, "Rose of No Man's Land", perfumes[0].Name)

	perfumes, err = catalog.SearchPerfumes(context.Background(), "no match", 50)
	require.NoError(t, err)
	assert.Empty(t, perfumes)
}

func TestCatalogGateway_ListPerfumesHonorsLimit(t *testing.T) {
	server, client := newBackend(t)
	seedCatalog(server)
	catalog := NewCatalogGateway(client)

	perfumes, err := catalog.ListPerfumes(context.Background(), 2, "rating_count", true)
	require.NoError(t, err)
	assert.Len(t, perfumes, 2)
}

func TestProfileGateway_CreateAndGet(t *testing.T) {
	_, client := newBackend(t)
	profiles := NewProfileGateway(client)
	ctx := context.Background()

	_, err := profiles.Get(ctx, "user-1")
	assert.ErrorIs(t, err, model.ErrProfileNotFound)

	created, err := profiles.Create(ctx, &model.Profile{
		ID:       "user-1",
		Username: "alice",
		Country:  strPtr("France"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)

	got, err := profiles.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	require.NotNil(t, got.Country)
	assert.Equal(t, "France", *got.Country)
}

func TestProfileGateway_DuplicateUsernameMapsToTaken(t *testing.T) {
	_, client := newBackend(t)
	profiles := NewProfileGateway(client)
	ctx := context.Background()

	_, err := profiles.Create(ctx, &model.Profile{ID: "user-1", Username: "alice"})
	require.NoError(t, err)

	_, err = profiles.Create(ctx, &model.Profile{ID: "user-2", Username: "alice"})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

func TestProfileGateway_UsernameAvailable(t *testing.T) {
	server, client := newBackend(t)
	profiles := NewProfileGateway(client)
	ctx := context.Background()

	server.SeedProfile(model.Profile{ID: "user-1", Username: "alice"})

	available, err := profiles.UsernameAvailable(ctx, "alice", "")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = profiles.UsernameAvailable(ctx, "bob", "")
	require.NoError(t, err)
	assert.True(t, available)

	// The identity's own row does not block a no-op rename.
	available, err = profiles.UsernameAvailable(ctx, "alice", "user-1")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestProfileGateway_Update(t *testing.T) {
	server, client := newBackend(t)
	profiles := NewProfileGateway(client)
	ctx := context.Background()

	server.SeedProfile(model.Profile{ID: "user-1", Username: "alice"})

	updated, err := profiles.Update(ctx, "user-1", model.ProfilePatch{
		Username: strPtr("alice2"),
		Country:  strPtr("Spain"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	stored := server.ProfileOf("user-1")
	require.NotNil(t, stored)
	assert.Equal(t, "alice2", stored.Username)
}

func TestCollectionGateway_ListWithItemsProjectsDerivedFields(t *testing.T) {
	server, client := newBackend(t)
	collections := NewCollectionGateway(client)
	ctx := context.Background()

	server.SeedCollection(model.Collection{ID: "c-1", UserID: "user-1", Name: "My Collection", IsDefault: true})
	for i := 0; i < 6; i++ {
		item := model.CollectionItem{
			CollectionID: "c-1",
			PerfumeID:    int64(i + 1),
			PerfumeName:  "p",
		}
		if i < 5 {
			url := "https://img.example/" + string(rune('a'+i)) + ".jpg"
			item.ImageURL = &url
		}
		server.SeedItem(item)
	}

	listed, err := collections.ListWithItems(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 6, listed[0].ItemCount)
	assert.Len(t, listed[0].SampleImages, 4)
}

func TestCollectionGateway_ListWithItemsOrdersDefaultsFirst(t *testing.T) {
	server, client := newBackend(t)
	collections := NewCollectionGateway(client)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	server.SeedCollection(model.Collection{ID: "c-custom", UserID: "user-1", Name: "Summer", CreatedAt: base})
	server.SeedCollection(model.Collection{ID: "c-default", UserID: "user-1", Name: "My Collection", IsDefault: true, CreatedAt: base.Add(time.Hour)})

	listed, err := collections.ListWithItems(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "c-default", listed[0].ID)
	assert.Equal(t, "c-custom", listed[1].ID)
}

func TestCollectionGateway_CreateAndCreateDefault(t *testing.T) {
	server, client := newBackend(t)
	collections := NewCollectionGateway(client)
	ctx := context.Background()

	created, err := collections.Create(ctx, "user-1", "Summer Picks", strPtr("warm weather"))
	require.NoError(t, err)
	assert.False(t, created.IsDefault)
	assert.Equal(t, "Summer Picks", created.Name)

	def, err := collections.CreateDefault(ctx, "user-1", model.DefaultWishlistName)
	require.NoError(t, err)
	assert.True(t, def.IsDefault)

	assert.Len(t, server.CollectionsOf("user-1"), 2)
}

func TestCollectionGateway_AddItemDuplicateMapsToSentinel(t *testing.T) {
	server, client := newBackend(t)
	collections := NewCollectionGateway(client)
	ctx := context.Background()

	server.SeedCollection(model.Collection{ID: "c-1", UserID: "user-1", Name: "My Collection"})

	item := &model.CollectionItem{CollectionID: "c-1", PerfumeID: 7, PerfumeName: "Aventus"}
	_, err := collections.AddItem(ctx, item)
	require.NoError(t, err)

	_, err = collections.AddItem(ctx, &model.CollectionItem{CollectionID: "c-1", PerfumeID: 7, PerfumeName: "Aventus"})
	assert.ErrorIs(t, err, model.ErrDuplicateItem)
}

func TestCollectionGateway_FindItem(t *testing.T) {
	server, client := newBackend(t)
	collections := NewCollectionGateway(client)
	ctx := context.Background()

	server.SeedItem(model.CollectionItem{ID: "i-1", CollectionID: "c-1", PerfumeID: 7})

	found, err := collections.FindItem(ctx, "c-1", 7)
	require.NoError(t, err)
	assert.Equal(t, "i-1", found.ID)

	_, err = collections.FindItem(ctx, "c-1", 8)
	assert.ErrorIs(t, err, model.ErrCollectionItemNotFound)
}

func TestCollectionGateway_RemoveItem(t *testing.T) {
	server, client := newBackend(t)
	collections := NewCollectionGateway(client)
	ctx := context.Background()

	server.SeedItem(model.CollectionItem{ID: "i-1", CollectionID: "c-1", PerfumeID: 7})

	require.NoError(t, collections.RemoveItem(ctx, "i-1"))
	assert.Empty(t, server.ItemsOf("c-1"))
}

func TestCollectionGateway_RemoveItemInjectedFailure(t *testing.T) {
	server, client := newBackend(t)
	collections := NewCollectionGateway(client)

	server.SeedItem(model.CollectionItem{ID: "i-1", CollectionID: "c-1", PerfumeID: 7})
	server.FailDeleteOf("i-1")

	err := collections.RemoveItem(context.Background(), "i-1")
	assert.Error(t, err)
	assert.Len(t, server.ItemsOf("c-1"), 1)
}

func TestAuthGateway_SignUpAndSignIn(t *testing.T) {
	_, client := newBackend(t)
	auth := NewAuthGateway(client)
	ctx := context.Background()

	session, err := auth.SignUp(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "a@b.c", session.Identity.Email)

	again, err := auth.SignIn(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, again.Identity.ID)
}

func TestAuthGateway_BadCredentials(t *testing.T) {
	server, client := newBackend(t)
	auth := NewAuthGateway(client)
	ctx := context.Background()

	server.SeedUser("a@b.c", "secret")

	_, err := auth.SignIn(ctx, "a@b.c", "wrong")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = auth.SignIn(ctx, "missing@b.c", "secret")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuthGateway_CurrentIdentity(t *testing.T) {
	_, client := newBackend(t)
	auth := NewAuthGateway(client)
	ctx := context.Background()

	session, err := auth.SignUp(ctx, "a@b.c", "secret")
	require.NoError(t, err)

	identity, err := auth.CurrentIdentity(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, identity.ID)

	_, err = auth.CurrentIdentity(ctx, "garbage-token")
	assert.Error(t, err)
}

func TestGateway_InjectedBackendFailureSurfaces(t *testing.T) {
	server, client := newBackend(t)
	seedCatalog(server)
	catalog := NewCatalogGateway(client)

	server.FailNextRequests(1)

	_, err := catalog.SearchPerfumes(context.Background(), "rose", 50)
	assert.Error(t, err)

	perfumes, err := catalog.SearchPerfumes(context.Background(), "rose", 50)
	require.NoError(t, err)
	assert.Len(t, perfumes, 1)
}
