package service

import (
	"context"
	"errors"
	"testing"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/types"
)

func TestService_Login(t *testing.T) {
	svc, _ := newTestService(t)

	username := genUsername()

	out, err := svc.Login(context.Background(), types.Login{Username: username})
	if err != nil {
		t.Fatalf("could not login: %v", err)
	}
	if !id.Valid(out.User.ID) {
		t.Fatalf("expected a valid user ID, got %q", out.User.ID)
	}
	if out.User.Username != username {
		t.Fatalf("expected username %q, got %q", username, out.User.Username)
	}
	if out.Token == "" {
		t.Fatal("expected a token")
	}

	// Same username resolves to the same identity.
	again, err := svc.Login(context.Background(), types.Login{Username: username})
	if err != nil {
		t.Fatalf("could not login twice: %v", err)
	}
	if again.User.ID != out.User.ID {
		t.Fatalf("expected the same user, got %q and %q", out.User.ID, again.User.ID)
	}

	user, err := svc.UserFromToken(context.Background(), out.Token)
	if err != nil {
		t.Fatalf("could not resolve token: %v", err)
	}
	if user.ID != out.User.ID {
		t.Fatalf("expected user %q from token, got %q", out.User.ID, user.ID)
	}

	if _, err := svc.UserFromToken(context.Background(), "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected %v, got %v", ErrUnauthenticated, err)
	}
}
