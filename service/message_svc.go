package service

import (
	"context"

	"github.com/immoalbania/immo/auth"
	"github.com/immoalbania/immo/types"
)

// SendMessage appends a message to the conversation and notifies live
// participants: new-message to the conversation room, then
// conversation-updated to each participant's personal room so list views
// refresh without the conversation open. The durable write stands
// regardless of what happens to the broadcasts.
func (svc *Service) SendMessage(ctx context.Context, in types.SendMessage) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, ErrUnauthenticated
	}

	in.SetLoggedInUserID(user.ID)

	msg, err := svc.Cockroach.CreateMessage(ctx, in)
	if err != nil {
		return out, err
	}

	sender := user
	msg.Sender = &sender

	svc.background(func(ctx context.Context) error {
		// Resolve recipients first so the two emits run back to back and
		// receivers never observe them swapped.
		participants, err := svc.Cockroach.Participants(ctx, msg.ConversationID)
		if err != nil {
			return err
		}

		svc.Broadcast.EmitToRoom(ctx, msg.ConversationID, types.NewMessageEvent(msg.ConversationID, msg))

		updated := types.ConversationUpdatedEvent(msg.ConversationID, msg.Content, msg.CreatedAt)
		for _, participantID := range participants {
			svc.Broadcast.EmitToRoom(ctx, participantID, updated)
		}

		return nil
	})

	return msg, nil
}

// Messages returns the conversation's full history in creation order.
func (svc *Service) Messages(ctx context.Context, in types.ListMessages) ([]types.Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, ErrUnauthenticated
	}

	in.SetLoggedInUserID(user.ID)

	if err := svc.EnsureParticipant(ctx, in.ConversationID); err != nil {
		return nil, err
	}

	return svc.Cockroach.Messages(ctx, in)
}

// UnreadCount counts unread messages addressed to the logged-in user across
// all of their conversations.
func (svc *Service) UnreadCount(ctx context.Context) (int64, error) {
	user, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return 0, ErrUnauthenticated
	}

	return svc.Cockroach.UnreadCount(ctx, user.ID)
}
