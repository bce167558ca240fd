package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/immoalbania/immo/cockroach"
	"github.com/immoalbania/immo/ptr"
	"github.com/immoalbania/immo/types"
)

func TestService_OpenConversation(t *testing.T) {
	svc, _ := newTestService(t)

	aliceCtx, alice := loginUser(t, svc, genUsername())
	bobCtx, bob := loginUser(t, svc, genUsername())

	t.Run("creates_then_reuses", func(t *testing.T) {
		first := openConversation(t, svc, aliceCtx, bob.ID, nil)
		if first.ID == "" {
			t.Fatal("expected a conversation ID")
		}
		if len(first.Messages) != 0 {
			t.Fatalf("expected no messages, got %d", len(first.Messages))
		}
		if first.Participation == nil || first.Participation.OtherUserID != bob.ID {
			t.Fatalf("expected participation pointing at %q, got %+v", bob.ID, first.Participation)
		}

		again := openConversation(t, svc, aliceCtx, bob.ID, nil)
		if again.ID != first.ID {
			t.Fatalf("expected the same conversation, got %q and %q", first.ID, again.ID)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		fromAlice := openConversation(t, svc, aliceCtx, bob.ID, nil)
		fromBob := openConversation(t, svc, bobCtx, alice.ID, nil)
		if fromAlice.ID != fromBob.ID {
			t.Fatalf("expected the same conversation from both sides, got %q and %q", fromAlice.ID, fromBob.ID)
		}
		if fromBob.Participation == nil || fromBob.Participation.OtherUserID != alice.ID {
			t.Fatalf("expected bob's participation pointing at %q, got %+v", alice.ID, fromBob.Participation)
		}
	})

	t.Run("listing_scoped", func(t *testing.T) {
		bare := openConversation(t, svc, aliceCtx, bob.ID, nil)
		listed := openConversation(t, svc, aliceCtx, bob.ID, ptr.From("listing-42"))
		if bare.ID == listed.ID {
			t.Fatal("expected a listing-scoped conversation to be distinct")
		}
		if listed.ListingID == nil || *listed.ListingID != "listing-42" {
			t.Fatalf("expected listing ID %q, got %v", "listing-42", listed.ListingID)
		}

		listedAgain := openConversation(t, svc, bobCtx, alice.ID, ptr.From("listing-42"))
		if listedAgain.ID != listed.ID {
			t.Fatalf("expected the same listing-scoped conversation, got %q and %q", listed.ID, listedAgain.ID)
		}
	})

	t.Run("with_self", func(t *testing.T) {
		_, err := svc.OpenConversation(aliceCtx, types.OpenConversation{OtherUserID: alice.ID})
		if !errors.Is(err, cockroach.ErrInvalidParticipants) {
			t.Fatalf("expected %v, got %v", cockroach.ErrInvalidParticipants, err)
		}
	})

	t.Run("unknown_peer", func(t *testing.T) {
		_, err := svc.OpenConversation(aliceCtx, types.OpenConversation{OtherUserID: "baddeadbeefbaddeadbe"})
		if !errors.Is(err, cockroach.ErrUserNotFound) {
			t.Fatalf("expected %v, got %v", cockroach.ErrUserNotFound, err)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := svc.OpenConversation(context.Background(), types.OpenConversation{OtherUserID: bob.ID})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected %v, got %v", ErrUnauthenticated, err)
		}
	})

	t.Run("concurrent_open_converges", func(t *testing.T) {
		_, carol := loginUser(t, svc, genUsername())

		ids := make([]string, 4)
		var g errgroup.Group
		for i := range ids {
			g.Go(func() error {
				out, err := svc.OpenConversation(aliceCtx, types.OpenConversation{OtherUserID: carol.ID})
				if err != nil {
					return err
				}
				ids[i] = out.ID
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("concurrent open failed: %v", err)
		}

		for _, got := range ids[1:] {
			if got != ids[0] {
				t.Fatalf("expected one conversation, got %q and %q", ids[0], got)
			}
		}
	})
}

func TestService_Conversations(t *testing.T) {
	svc, _ := newTestService(t)

	aliceCtx, _ := loginUser(t, svc, genUsername())
	_, bob := loginUser(t, svc, genUsername())
	_, carol := loginUser(t, svc, genUsername())

	withBob := openConversation(t, svc, aliceCtx, bob.ID, nil)
	withCarol := openConversation(t, svc, aliceCtx, carol.ID, nil)

	sendMessage(t, svc, aliceCtx, withBob.ID, "hi bob")
	sendMessage(t, svc, aliceCtx, withCarol.ID, "hi carol")

	cc, err := svc.Conversations(aliceCtx)
	if err != nil {
		t.Fatalf("could not list conversations: %v", err)
	}
	if len(cc) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(cc))
	}

	// Most recent activity first.
	if cc[0].ID != withCarol.ID || cc[1].ID != withBob.ID {
		t.Fatalf("expected order [%q %q], got [%q %q]", withCarol.ID, withBob.ID, cc[0].ID, cc[1].ID)
	}
	if cc[0].LastMessage == nil || *cc[0].LastMessage != "hi carol" {
		t.Fatalf("expected last message preview, got %v", cc[0].LastMessage)
	}

	if _, err := svc.Conversations(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected %v, got %v", ErrUnauthenticated, err)
	}
}

func TestService_MarkConversationRead(t *testing.T) {
	svc, hub := newTestService(t)

	aliceCtx, alice := loginUser(t, svc, genUsername())
	bobCtx, bob := loginUser(t, svc, genUsername())

	conv := openConversation(t, svc, aliceCtx, bob.ID, nil)

	sendMessage(t, svc, aliceCtx, conv.ID, "one")
	sendMessage(t, svc, aliceCtx, conv.ID, "two")

	count, err := svc.UnreadCount(bobCtx)
	if err != nil {
		t.Fatalf("could not count unread: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}

	// Alice listens on the conversation room for the read receipt.
	aliceSess := hub.RegisterSession(alice.ID)
	defer hub.DeregisterSession(aliceSess)
	hub.JoinRoom(aliceSess, conv.ID)

	updated, err := svc.MarkConversationRead(bobCtx, types.MarkConversationRead{ConversationID: conv.ID})
	if err != nil {
		t.Fatalf("could not mark read: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated, got %d", updated)
	}

	waitEvent(t, aliceSess, types.EventMessagesRead)

	// Marking again touches nothing.
	updated, err = svc.MarkConversationRead(bobCtx, types.MarkConversationRead{ConversationID: conv.ID})
	if err != nil {
		t.Fatalf("could not mark read twice: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 updated on repeat, got %d", updated)
	}

	count, err = svc.UnreadCount(bobCtx)
	if err != nil {
		t.Fatalf("could not count unread: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}

	// Outsiders cannot mark a conversation they are not part of.
	mallonCtx, _ := loginUser(t, svc, genUsername())
	_, err = svc.MarkConversationRead(mallonCtx, types.MarkConversationRead{ConversationID: conv.ID})
	if !errors.Is(err, cockroach.ErrNotParticipant) {
		t.Fatalf("expected %v, got %v", cockroach.ErrNotParticipant, err)
	}
}

func TestService_SignalTyping(t *testing.T) {
	svc, hub := newTestService(t)

	aliceCtx, _ := loginUser(t, svc, genUsername())
	_, bob := loginUser(t, svc, genUsername())

	conv := openConversation(t, svc, aliceCtx, bob.ID, nil)

	bobSess := hub.RegisterSession(bob.ID)
	defer hub.DeregisterSession(bobSess)
	hub.JoinRoom(bobSess, conv.ID)

	err := svc.SignalTyping(aliceCtx, types.SignalTyping{ConversationID: conv.ID, Typing: true})
	if err != nil {
		t.Fatalf("could not signal typing: %v", err)
	}

	b := waitEvent(t, bobSess, types.EventUserTyping)

	var ev struct {
		Payload types.UserTypingPayload `json:"payload"`
	}
	if err := json.Unmarshal(b, &ev); err != nil {
		t.Fatalf("could not decode typing payload: %v", err)
	}
	if !ev.Payload.Typing {
		t.Fatal("expected typing to be true")
	}
	if ev.Payload.ConversationID != conv.ID {
		t.Fatalf("expected conversation %q, got %q", conv.ID, ev.Payload.ConversationID)
	}

	// Outsiders cannot signal into the conversation.
	mallonCtx, _ := loginUser(t, svc, genUsername())
	err = svc.SignalTyping(mallonCtx, types.SignalTyping{ConversationID: conv.ID, Typing: true})
	if !errors.Is(err, cockroach.ErrNotParticipant) {
		t.Fatalf("expected %v, got %v", cockroach.ErrNotParticipant, err)
	}
}
