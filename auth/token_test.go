package auth

import (
	"testing"
	"time"
)

const testKey = "abcdefghijklmnopqrstuvwxyz123456"

func TestCodec_roundTrip(t *testing.T) {
	codec, err := NewCodec(testKey, time.Hour)
	if err != nil {
		t.Fatalf("could not create codec: %v", err)
	}

	token, err := codec.IssueToken("user-123")
	if err != nil {
		t.Fatalf("could not issue token: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	userID, err := codec.VerifyToken(token)
	if err != nil {
		t.Fatalf("could not verify token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("expected user-123, got %q", userID)
	}
}

func TestCodec_rejectsGarbage(t *testing.T) {
	codec, err := NewCodec(testKey, time.Hour)
	if err != nil {
		t.Fatalf("could not create codec: %v", err)
	}

	if _, err := codec.VerifyToken("not-a-token"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}

func TestCodec_rejectsForeignKey(t *testing.T) {
	issuer, err := NewCodec(testKey, time.Hour)
	if err != nil {
		t.Fatalf("could not create codec: %v", err)
	}
	verifier, err := NewCodec("654321zyxwvutsrqponmlkjihgfedcba", time.Hour)
	if err != nil {
		t.Fatalf("could not create codec: %v", err)
	}

	token, err := issuer.IssueToken("user-123")
	if err != nil {
		t.Fatalf("could not issue token: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("expected an error for a token signed with another key")
	}
}

func TestNewCodec_keyLength(t *testing.T) {
	tt := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid_32_bytes", key: testKey, wantErr: false},
		{name: "empty", key: "", wantErr: true},
		{name: "too_short", key: "short", wantErr: true},
		{name: "too_long", key: testKey + "x", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCodec(tc.key, time.Hour)
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("got error %v, want error: %v", err, tc.wantErr)
			}
		})
	}
}
