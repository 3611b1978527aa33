package model

import (
	"errors"
	"time"
)

// Names of the two collections created automatically the first time an
// identity with zero collections is observed.
const (
	DefaultCollectionName = "My Collection"
	DefaultWishlistName   = "Wishlist"
)

// Collection is a named, user-owned group of catalog items.
//
// ItemCount and SampleImages are read-time projections derived from the
// membership rows on every list call; they are never persisted.
type Collection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	ItemCount    int      `json:"-"`
	SampleImages []string `json:"-"`
}

// CollectionPatch is a partial update to a collection's name or description.
type CollectionPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CollectionItem links one collection to one catalog item. The perfume name,
// brand, and image are denormalized so listing a collection does not require
// a join against the catalog on every render.
type CollectionItem struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	PerfumeID    int64     `json:"perfume_id"`
	PerfumeName  string    `json:"perfume_name"`
	PerfumeBrand *string   `json:"perfume_brand"`
	ImageURL     *string   `json:"image_url"`
	Note         *string   `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	// ErrCollectionNotFound is returned when a collection lookup matches no row
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionItemNotFound is returned when a membership row lookup matches no row
	ErrCollectionItemNotFound = errors.New("collection item not found")

	// ErrDuplicateItem is returned when a perfume is already a member of the collection
	ErrDuplicateItem = errors.New("perfume is already in this collection")

	// ErrEmptyCollectionName is returned when a collection name is empty after trimming
	ErrEmptyCollectionName = errors.New("collection name is required")
)
