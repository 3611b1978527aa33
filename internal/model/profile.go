package model

import (
	"errors"
	"time"
)

// Profile is the application-specific user record, 1:1 with an Identity.
// It is created lazily on first authenticated access ("profile completion")
// and never deleted by the client.
type Profile struct {
	ID        string    `json:"id"` // equals the identity id
	Username  string    `json:"username"`
	Gender    *string   `json:"gender"`
	Age       *int      `json:"age"`
	Country   *string   `json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfilePatch is a partial update applied to a stored profile.
// Nil fields are left untouched.
type ProfilePatch struct {
	Username *string `json:"username,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	Age      *int    `json:"age,omitempty"`
	Country  *string `json:"country,omitempty"`
}

var (
	// ErrProfileNotFound is returned when an identity has no profile row yet.
	// This is a valid "absent" state, not a failure.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrUsernameTaken is returned when the requested username belongs to another identity
	ErrUsernameTaken = errors.New("username is already taken")
)
