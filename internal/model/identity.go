package model

import "errors"

// Identity is an authenticated user as known to the auth provider.
// It is created at sign-up and never mutated by the client.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is the result of a successful sign-in or sign-up.
type AuthSession struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

var (
	// ErrNotSignedIn is returned when an operation requires an authenticated identity
	ErrNotSignedIn = errors.New("not signed in")

	// ErrInvalidCredentials is returned when sign-in credentials are rejected
	ErrInvalidCredentials = errors.New("invalid email or password")
)
