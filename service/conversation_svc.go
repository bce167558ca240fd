package service

import (
	"context"

	"github.com/immoalbania/immo/auth"
	"github.com/immoalbania/immo/cockroach"
	"github.com/immoalbania/immo/types"
)

// OpenConversation finds or lazily creates the conversation between the
// logged-in user and the peer, optionally scoped to a listing, and returns
// it with its full message history. Nothing is broadcast: the peer only
// learns about a fresh conversation with its first message.
func (svc *Service) OpenConversation(ctx context.Context, in types.OpenConversation) (types.ConversationWithMessages, error) {
	var out types.ConversationWithMessages

	if err := in.Validate(); err != nil {
		return out, err
	}

	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, ErrUnauthenticated
	}

	in.SetLoggedInUserID(user.ID)

	if in.OtherUserID == user.ID {
		return out, cockroach.ErrInvalidParticipants
	}

	// Fail with a clear not-found before creating anything for a bogus peer.
	if _, err := svc.Cockroach.User(ctx, in.OtherUserID); err != nil {
		return out, err
	}

	conv, err := svc.Cockroach.EnsureConversation(ctx, in)
	if err != nil {
		return out, err
	}

	retrieve := types.RetrieveConversation{ConversationID: conv.ID}
	retrieve.SetLoggedInUserID(user.ID)
	out.Conversation, err = svc.Cockroach.Conversation(ctx, retrieve)
	if err != nil {
		return out, err
	}

	list := types.ListMessages{ConversationID: conv.ID}
	list.SetLoggedInUserID(user.ID)
	out.Messages, err = svc.Cockroach.Messages(ctx, list)
	if err != nil {
		return out, err
	}

	if out.Messages == nil {
		out.Messages = []types.Message{} // non null array
	}

	return out, nil
}

// Conversations lists the logged-in user's conversations, most recent
// activity first, each with the peer's summary and an unread count.
func (svc *Service) Conversations(ctx context.Context) ([]types.Conversation, error) {
	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, ErrUnauthenticated
	}

	return svc.Cockroach.Conversations(ctx, user.ID)
}

// MarkConversationRead marks every message in the conversation not sent by
// the logged-in user as read, then tells the other participant. Idempotent;
// the returned count is diagnostic only.
func (svc *Service) MarkConversationRead(ctx context.Context, in types.MarkConversationRead) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return 0, ErrUnauthenticated
	}

	in.SetLoggedInUserID(user.ID)

	if err := svc.EnsureParticipant(ctx, in.ConversationID); err != nil {
		return 0, err
	}

	count, err := svc.Cockroach.MarkMessagesRead(ctx, in)
	if err != nil {
		return 0, err
	}

	conversationID, readerID := in.ConversationID, user.ID
	svc.background(func(ctx context.Context) error {
		// The reader does not need to be told about their own action.
		svc.Broadcast.EmitToRoom(ctx, conversationID, types.MessagesReadEvent(conversationID, readerID), readerID)
		return nil
	})

	return count, nil
}

// SignalTyping relays a transient typing indicator to the other
// participant's live sessions. Never persisted, no delivery guarantee.
func (svc *Service) SignalTyping(ctx context.Context, in types.SignalTyping) error {
	if err := in.Validate(); err != nil {
		return err
	}

	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return ErrUnauthenticated
	}

	in.SetLoggedInUserID(user.ID)

	if err := svc.EnsureParticipant(ctx, in.ConversationID); err != nil {
		return err
	}

	svc.Broadcast.EmitToRoom(ctx, in.ConversationID, types.UserTypingEvent(in.ConversationID, user.ID, in.Typing), user.ID)

	return nil
}

// EnsureParticipant fails with a permission error unless the logged-in user
// is a member of the conversation. Guessing a valid conversation ID is not
// enough to touch it.
func (svc *Service) EnsureParticipant(ctx context.Context, conversationID string) error {
	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return ErrUnauthenticated
	}

	member, err := svc.Cockroach.IsParticipant(ctx, conversationID, user.ID)
	if err != nil {
		return err
	}

	if !member {
		return cockroach.ErrNotParticipant
	}

	return nil
}
