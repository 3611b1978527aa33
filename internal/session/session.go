// Package session tracks the current authenticated identity and notifies
// subscribers on every transition. It is an explicit object injected into the
// flows that need an identity; nothing here is global.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"scentara/internal/gateway"
	"scentara/internal/model"
)

// Listener receives the new identity after a transition, or nil on sign-out.
type Listener func(*model.Identity)

type Session struct {
	auth gateway.AuthGateway
	log  *slog.Logger

	mu       sync.RWMutex
	identity *model.Identity
	token    string
	epoch    uint64
	nextSub  int
	subs     map[int]Listener
}

func New(auth gateway.AuthGateway, logger *slog.Logger) *Session {
	return &Session{
		auth: auth,
		log:  logger,
		subs: make(map[int]Listener),
	}
}

// Init restores a previous session from a saved access token. A missing,
// expired, or unverifiable token and any network failure all resolve to the
// unauthenticated state rather than an error: the app fails open to the
// signed-out view.
func (s *Session) Init(ctx context.Context, accessToken string) {
	if accessToken == "" {
		s.set(nil, "")
		return
	}

	if _, err := identityFromToken(accessToken); err != nil {
		s.log.Warn("stored access token rejected", "error", err)
		s.set(nil, "")
		return
	}

	identity, err := s.auth.CurrentIdentity(ctx, accessToken)
	if err != nil {
		s.log.Warn("could not restore session", "error", err)
		s.set(nil, "")
		return
	}

	s.set(identity, accessToken)
}

func (s *Session) SignUp(ctx context.Context, email, password string) error {
	authSession, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(&authSession.Identity, authSession.AccessToken)
	return nil
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	authSession, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(&authSession.Identity, authSession.AccessToken)
	return nil
}

// SignOut clears the local session unconditionally. Revoking the token at
// the auth provider is best effort; a network failure must not leave the
// client signed in.
func (s *Session) SignOut(ctx context.Context) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token != "" {
		if err := s.auth.SignOut(ctx, token); err != nil {
			s.log.Warn("remote sign-out failed", "error", err)
		}
	}

	s.set(nil, "")
}

func (s *Session) ResetPassword(ctx context.Context, email string) error {
	return s.auth.ResetPassword(ctx, email)
}

// Identity returns the current identity, or nil when signed out.
func (s *Session) Identity() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Token returns the current access token. It satisfies supabase.TokenSource
// so every table request after sign-in carries the user's JWT.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Epoch increments on every transition. Flows started under an older epoch
// use it to discard results that resolve after a sign-out or re-sign-in.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Subscribe registers a transition listener and returns an unsubscribe func.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// set records a transition and notifies listeners outside the lock.
func (s *Session) set(identity *model.Identity, token string) {
	s.mu.Lock()
	s.identity = identity
	s.token = token
	s.epoch++
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
}

// identityFromToken extracts the identity from the JWT claims without
// contacting the auth server. The client has no signing secret, so the
// signature is not verified here; the backend enforces it on every request.
func identityFromToken(token string) (*model.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("token expiration: %w", err)
	}
	if exp != nil && exp.Before(time.Now()) {
		return nil, fmt.Errorf("token expired at %s", exp.Time)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	email, _ := claims["email"].(string)
	return &model.Identity{ID: sub, Email: email}, nil
}
