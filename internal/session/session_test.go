package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentara/internal/model"
)

type mockAuthGateway struct {
	signUpFn          func(ctx context.Context, email, password string) (*model.AuthSession, error)
	signInFn          func(ctx context.Context, email, password string) (*model.AuthSession, error)
	signOutFn         func(ctx context.Context, accessToken string) error
	currentIdentityFn func(ctx context.Context, accessToken string) (*model.Identity, error)

	signOutTokens  []string
	identityTokens []string
}

func (m *mockAuthGateway) SignUp(ctx context.Context, email, password string) (*model.AuthSession, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password)
	}
	return nil, errors.New("not configured")
}

func (m *mockAuthGateway) SignIn(ctx context.Context, email, password string) (*model.AuthSession, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, errors.New("not configured")
}

func (m *mockAuthGateway) SignOut(ctx context.Context, accessToken string) error {
	m.signOutTokens = append(m.signOutTokens, accessToken)
	if m.signOutFn != nil {
		return m.signOutFn(ctx, accessToken)
	}
	return nil
}

func (m *mockAuthGateway) ResetPassword(ctx context.Context, email string) error {
	return nil
}

func (m *mockAuthGateway) CurrentIdentity(ctx context.Context, accessToken string) (*model.Identity, error) {
	m.identityTokens = append(m.identityTokens, accessToken)
	if m.currentIdentityFn != nil {
		return m.currentIdentityFn(ctx, accessToken)
	}
	return nil, errors.New("not configured")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return token
}

func TestInit_EmptyTokenSignsOut(t *testing.T) {
	auth := &mockAuthGateway{}
	s := New(auth, testLogger())

	s.Init(context.Background(), "")

	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Token())
	assert.Empty(t, auth.identityTokens)
}

func TestInit_ExpiredTokenSignsOutWithoutRemoteCall(t *testing.T) {
	auth := &mockAuthGateway{}
	s := New(auth, testLogger())

	token := signedToken(t, "user-1", "a@b.c", time.Now().Add(-time.Hour))
	s.Init(context.Background(), token)

	assert.Nil(t, s.Identity())
	assert.Empty(t, auth.identityTokens)
}

func TestInit_GarbageTokenSignsOut(t *testing.T) {
	s := New(&mockAuthGateway{}, testLogger())

	s.Init(context.Background(), "not-a-jwt")

	assert.Nil(t, s.Identity())
}

func TestInit_RemoteFailureFailsOpen(t *testing.T) {
	auth := &mockAuthGateway{
		currentIdentityFn: func(context.Context, string) (*model.Identity, error) {
			return nil, errors.New("network down")
		},
	}
	s := New(auth, testLogger())

	token := signedToken(t, "user-1", "a@b.c", time.Now().Add(time.Hour))
	s.Init(context.Background(), token)

	assert.Nil(t, s.Identity())
}

func TestInit_RestoresSession(t *testing.T) {
	auth := &mockAuthGateway{
		currentIdentityFn: func(_ context.Context, accessToken string) (*model.Identity, error) {
			return &model.Identity{ID: "user-1", Email: "a@b.c"}, nil
		},
	}
	s := New(auth, testLogger())

	token := signedToken(t, "user-1", "a@b.c", time.Now().Add(time.Hour))
	s.Init(context.Background(), token)

	require.NotNil(t, s.Identity())
	assert.Equal(t, "user-1", s.Identity().ID)
	assert.Equal(t, token, s.Token())
	assert.Equal(t, []string{token}, auth.identityTokens)
}

func TestSignIn_SetsIdentityAndNotifies(t *testing.T) {
	auth := &mockAuthGateway{
		signInFn: func(context.Context, string, string) (*model.AuthSession, error) {
			return &model.AuthSession{
				Identity:    model.Identity{ID: "user-1", Email: "a@b.c"},
				AccessToken: "token-1",
			}, nil
		},
	}
	s := New(auth, testLogger())

	var notified []*model.Identity
	s.Subscribe(func(identity *model.Identity) {
		notified = append(notified, identity)
	})

	before := s.Epoch()
	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "pw"))

	require.NotNil(t, s.Identity())
	assert.Equal(t, "token-1", s.Token())
	assert.Greater(t, s.Epoch(), before)
	require.Len(t, notified, 1)
	assert.Equal(t, "user-1", notified[0].ID)
}

func TestSignIn_FailureLeavesSignedOut(t *testing.T) {
	auth := &mockAuthGateway{
		signInFn: func(context.Context, string, string) (*model.AuthSession, error) {
			return nil, model.ErrInvalidCredentials
		},
	}
	s := New(auth, testLogger())

	err := s.SignIn(context.Background(), "a@b.c", "wrong")

	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Nil(t, s.Identity())
}

func TestSignOut_ClearsEvenWhenRemoteRevokeFails(t *testing.T) {
	auth := &mockAuthGateway{
		signInFn: func(context.Context, string, string) (*model.AuthSession, error) {
			return &model.AuthSession{
				Identity:    model.Identity{ID: "user-1"},
				AccessToken: "token-1",
			}, nil
		},
		signOutFn: func(context.Context, string) error {
			return errors.New("network down")
		},
	}
	s := New(auth, testLogger())
	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "pw"))

	s.SignOut(context.Background())

	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Token())
	assert.Equal(t, []string{"token-1"}, auth.signOutTokens)
}

func TestSignOut_NotifiesWithNil(t *testing.T) {
	auth := &mockAuthGateway{
		signInFn: func(context.Context, string, string) (*model.AuthSession, error) {
			return &model.AuthSession{
				Identity:    model.Identity{ID: "user-1"},
				AccessToken: "token-1",
			}, nil
		},
	}
	s := New(auth, testLogger())
	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "pw"))

	var last *model.Identity
	var called bool
	s.Subscribe(func(identity *model.Identity) {
		last = identity
		called = true
	})

	s.SignOut(context.Background())

	assert.True(t, called)
	assert.Nil(t, last)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	auth := &mockAuthGateway{
		signInFn: func(context.Context, string, string) (*model.AuthSession, error) {
			return &model.AuthSession{Identity: model.Identity{ID: "user-1"}, AccessToken: "t"}, nil
		},
	}
	s := New(auth, testLogger())

	calls := 0
	unsub := s.Subscribe(func(*model.Identity) { calls++ })
	unsub()

	require.NoError(t, s.SignIn(context.Background(), "a@b.c", "pw"))

	assert.Zero(t, calls)
}
