// Package app wires the session to the workflows that react to it: a
// sign-in triggers the profile completion check and then the collection
// load, and a sign-out clears everything so no identity ever sees another
// identity's rows.
package app

import (
	"context"
	"log/slog"
	"sync"

	"scentara/internal/collection"
	"scentara/internal/model"
	"scentara/internal/profile"
	"scentara/internal/session"
)

type App struct {
	session     *session.Session
	profiles    *profile.Service
	collections *collection.Manager
	log         *slog.Logger

	mu      sync.Mutex
	current []model.Collection
	unsub   func()
}

func New(sess *session.Session, profiles *profile.Service, collections *collection.Manager, logger *slog.Logger) *App {
	return &App{
		session:     sess,
		profiles:    profiles,
		collections: collections,
		log:         logger,
	}
}

// Start subscribes to session transitions. Sign-out handling is synchronous
// so stale state is gone before the next render; the sign-in flow runs in
// the background because it performs remote calls.
func (a *App) Start(ctx context.Context) {
	a.unsub = a.session.Subscribe(func(identity *model.Identity) {
		if identity == nil {
			a.profiles.Reset()
			a.setCollections(nil)
			return
		}
		go a.onSignIn(ctx, *identity)
	})
}

func (a *App) Stop() {
	if a.unsub != nil {
		a.unsub()
	}
}

// onSignIn runs the profile check and, once complete, the collection load.
// The epoch captured at the start pins the work to this sign-in: if the
// session transitions again while a call is in flight, the result is
// discarded instead of leaking into the new session.
func (a *App) onSignIn(ctx context.Context, identity model.Identity) {
	epoch := a.session.Epoch()

	state := a.profiles.Check(ctx, identity.ID)
	if a.session.Epoch() != epoch {
		return
	}
	if state != profile.StateComplete {
		return
	}

	a.loadCollections(ctx, epoch, identity.ID)
}

func (a *App) loadCollections(ctx context.Context, epoch uint64, identityID string) {
	collections, err := a.collections.List(ctx, identityID)
	if a.session.Epoch() != epoch {
		return
	}
	if err != nil {
		a.log.Warn("failed to load collections", "error", err)
		return
	}
	a.setCollections(collections)
}

// CompleteProfile submits the profile form and, on success, unlocks the
// collection features by loading the user's collections.
func (a *App) CompleteProfile(ctx context.Context, in profile.Input) error {
	identity := a.session.Identity()
	if identity == nil {
		return model.ErrNotSignedIn
	}

	epoch := a.session.Epoch()
	if _, err := a.profiles.Submit(ctx, identity.ID, in); err != nil {
		return err
	}

	a.loadCollections(ctx, epoch, identity.ID)
	return nil
}

// RefreshCollections re-fetches the collection list for the current
// identity, e.g. after a create or an item add.
func (a *App) RefreshCollections(ctx context.Context) error {
	identity := a.session.Identity()
	if identity == nil {
		return model.ErrNotSignedIn
	}

	a.loadCollections(ctx, a.session.Epoch(), identity.ID)
	return nil
}

// Collections returns the last loaded collection list for the current
// identity; nil when signed out or not yet loaded.
func (a *App) Collections() []model.Collection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *App) ProfileState() profile.State {
	return a.profiles.State()
}

func (a *App) setCollections(collections []model.Collection) {
	a.mu.Lock()
	a.current = collections
	a.mu.Unlock()
}
