package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/types"
)

// CreateMessage appends a message and updates the conversation's
// denormalized last-message fields in the same transaction: either both
// land or neither does. Fails if the sender is not a member.
func (c *Cockroach) CreateMessage(ctx context.Context, in types.SendMessage) (types.Message, error) {
	var out types.Message
	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		member, err := c.IsParticipant(ctx, in.ConversationID, in.LoggedInUserID())
		if err != nil {
			return err
		}

		if !member {
			return ErrNotParticipant
		}

		msg, err := c.createMessage(ctx, in)
		if err != nil {
			return err
		}

		if err := c.updateConversationLastMessage(ctx, in.ConversationID, msg.Content); err != nil {
			return err
		}

		out = msg
		return nil
	})
}

func (c *Cockroach) createMessage(ctx context.Context, in types.SendMessage) (types.Message, error) {
	var out types.Message

	const q = `
		INSERT INTO messages (id, conversation_id, sender_id, content, kind)
		VALUES (@message_id, @conversation_id, @sender_id, @content, @kind)
		RETURNING *
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"message_id":      id.Generate(),
		"conversation_id": in.ConversationID,
		"sender_id":       in.LoggedInUserID(),
		"content":         in.Content,
		"kind":            in.Kind.String(),
	})
	if err != nil {
		return out, fmt.Errorf("sql insert message: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted message: %w", err)
	}

	return out, nil
}

func (c *Cockroach) updateConversationLastMessage(ctx context.Context, conversationID, content string) error {
	const q = `
		UPDATE conversations
		SET last_message = @last_message,
			last_message_at = now(),
			updated_at = now()
		WHERE id = @conversation_id
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"last_message":    content,
	})
	if err != nil {
		return fmt.Errorf("sql update conversation last message: %w", err)
	}

	return nil
}

// Messages returns a conversation's full history in creation order.
// Message IDs are time-sortable, so (created_at, id) is a total order even
// for identical timestamps.
func (c *Cockroach) Messages(ctx context.Context, in types.ListMessages) ([]types.Message, error) {
	const q = `
		SELECT messages.*,
			json_build_object(
				'id', users.id,
				'username', users.username,
				'avatarUrl', users.avatar_url,
				'createdAt', users.created_at
			) AS sender
		FROM messages
		INNER JOIN users ON users.id = messages.sender_id
		WHERE messages.conversation_id = @conversation_id
		ORDER BY messages.created_at ASC, messages.id ASC
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select messages: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return nil, fmt.Errorf("sql collect messages: %w", err)
	}

	return out, nil
}

// MarkMessagesRead flips every unread message not sent by the reader to
// read. Idempotent. The returned count is diagnostic only.
func (c *Cockroach) MarkMessagesRead(ctx context.Context, in types.MarkConversationRead) (int64, error) {
	const q = `
		UPDATE messages
		SET read = true
		WHERE conversation_id = @conversation_id
			AND sender_id != @user_id
			AND read = false
	`

	tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
		"user_id":         in.LoggedInUserID(),
	})
	if err != nil {
		return 0, fmt.Errorf("sql update messages as read: %w", err)
	}

	return tag.RowsAffected(), nil
}

// UnreadCount counts unread messages addressed to the user across all their
// conversations.
func (c *Cockroach) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64

	const q = `
		SELECT count(*)
		FROM messages
		INNER JOIN participants ON participants.conversation_id = messages.conversation_id
		WHERE participants.user_id = @user_id
			AND messages.sender_id != @user_id
			AND messages.read = false
	`

	err := c.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	}).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sql count unread messages: %w", err)
	}

	return count, nil
}
