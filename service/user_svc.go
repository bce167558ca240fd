package service

import (
	"context"
	"fmt"

	"github.com/immoalbania/immo/types"
)

// Login resolves a username to an identity and issues a token for it.
// Accounts proper (passwords, e-mail verification, roles) belong to the
// identity provider; this is only the boundary the chat core needs.
func (svc *Service) Login(ctx context.Context, in types.Login) (types.AuthOutput, error) {
	var out types.AuthOutput

	if err := in.Validate(); err != nil {
		return out, err
	}

	user, err := svc.Cockroach.EnsureUser(ctx, in.Username)
	if err != nil {
		return out, err
	}

	token, err := svc.Auth.IssueToken(user.ID)
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}

	out.User = user
	out.Token = token

	return out, nil
}

// UserFromToken verifies a bearer token and loads the identity behind it.
func (svc *Service) UserFromToken(ctx context.Context, token string) (types.User, error) {
	userID, err := svc.Auth.VerifyToken(token)
	if err != nil {
		return types.User{}, ErrUnauthenticated
	}

	return svc.Cockroach.User(ctx, userID)
}
