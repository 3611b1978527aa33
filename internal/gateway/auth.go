package gateway

import (
	"context"
	"errors"
	"fmt"

	"scentara/internal/model"
	"scentara/internal/supabase"
)

type authGateway struct {
	client *supabase.Client
}

func NewAuthGateway(client *supabase.Client) AuthGateway {
	return &authGateway{client: client}
}

func (g *authGateway) SignUp(ctx context.Context, email, password string) (*model.AuthSession, error) {
	session, err := g.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return toAuthSession(session)
}

func (g *authGateway) SignIn(ctx context.Context, email, password string) (*model.AuthSession, error) {
	session, err := g.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, supabase.ErrInvalidGrant) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return toAuthSession(session)
}

func (g *authGateway) SignOut(ctx context.Context, accessToken string) error {
	if err := g.client.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (g *authGateway) ResetPassword(ctx context.Context, email string) error {
	if err := g.client.ResetPasswordForEmail(ctx, email); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (g *authGateway) CurrentIdentity(ctx context.Context, accessToken string) (*model.Identity, error) {
	user, err := g.client.GetUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("current identity: %w", err)
	}
	return &model.Identity{ID: user.ID, Email: user.Email}, nil
}

func toAuthSession(s *supabase.AuthSession) (*model.AuthSession, error) {
	if s.User == nil {
		return nil, fmt.Errorf("auth response missing user")
	}
	return &model.AuthSession{
		Identity:     model.Identity{ID: s.User.ID, Email: s.User.Email},
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
	}, nil
}
