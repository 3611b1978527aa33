// Package gateway is the typed Remote Data Gateway: record-shaped operations
// over the backend's four logical tables (perfumes, profiles, collections,
// collection_items) plus the auth surface. All durable state lives behind
// these interfaces; the client only holds transient copies.
package gateway

import (
	"context"

	"scentara/internal/model"
)

type CatalogGateway interface {
	// GetPerfume returns model.ErrPerfumeNotFound when no row matches.
	GetPerfume(ctx context.Context, id int64) (*model.Perfume, error)
	ListPerfumes(ctx context.Context, limit int, orderBy string, descending bool) ([]model.Perfume, error)
	// SearchPerfumes matches the name column case-insensitively by substring.
	SearchPerfumes(ctx context.Context, nameSubstring string, limit int) ([]model.Perfume, error)
}

type ProfileGateway interface {
	// Get returns model.ErrProfileNotFound when the identity has no profile yet.
	Get(ctx context.Context, identityID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) (*model.Profile, error)
	Update(ctx context.Context, identityID string, patch model.ProfilePatch) (*model.Profile, error)
	// UsernameAvailable reports whether no other identity holds the username.
	// excludeIdentityID skips the caller's own row when editing.
	UsernameAvailable(ctx context.Context, username, excludeIdentityID string) (bool, error)
}

type CollectionGateway interface {
	// ListWithItems fetches the identity's collections joined with their
	// membership rows and fills the derived ItemCount/SampleImages fields.
	// Ordering: default collections first, then creation time ascending.
	ListWithItems(ctx context.Context, identityID string) ([]model.Collection, error)
	Create(ctx context.Context, identityID, name string, description *string) (*model.Collection, error)
	// CreateDefault inserts one of the auto-created default collections.
	CreateDefault(ctx context.Context, identityID, name string) (*model.Collection, error)
	Update(ctx context.Context, id string, patch model.CollectionPatch) (*model.Collection, error)
	// Delete is exposed by the backend but not wired into any screen.
	Delete(ctx context.Context, id string) error

	ListItems(ctx context.Context, collectionID string) ([]model.CollectionItem, error)
	// FindItem returns model.ErrCollectionItemNotFound when the
	// (collection, perfume) pair has no membership row.
	FindItem(ctx context.Context, collectionID string, perfumeID int64) (*model.CollectionItem, error)
	// AddItem returns model.ErrDuplicateItem when the backend's unique index
	// on (collection_id, perfume_id) rejects the insert.
	AddItem(ctx context.Context, item *model.CollectionItem) (*model.CollectionItem, error)
	RemoveItem(ctx context.Context, itemID string) error
}

type AuthGateway interface {
	SignUp(ctx context.Context, email, password string) (*model.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*model.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
	CurrentIdentity(ctx context.Context, accessToken string) (*model.Identity, error)
}
