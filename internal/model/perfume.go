package model

import "errors"

// Perfume is a catalog item. The catalog is read-only from the client's
// perspective; rows are never created, updated, or deleted here.
type Perfume struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Brand       *string  `json:"brand"`
	Gender      *string  `json:"gender"`
	Description *string  `json:"description"`
	TopNotes    *string  `json:"top_notes"`
	MiddleNotes *string  `json:"middle_notes"`
	BaseNotes   *string  `json:"base_notes"`
	Notes       *string  `json:"notes"` // flat list for rows without a pyramid breakdown
	MainAccords []string `json:"main_accords"`
	ImageURL    *string  `json:"image_url"`
	RatingValue *float64 `json:"rating_value"`
	RatingCount *int64   `json:"rating_count"`
}

// ErrPerfumeNotFound is returned when a catalog lookup matches no row.
// Unlike a missing profile, this surfaces to the user as a "not found" message.
var ErrPerfumeNotFound = errors.New("perfume not found")
