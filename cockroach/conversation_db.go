package cockroach

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/nicolasparada/go-errs"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/ptr"
	"github.com/immoalbania/immo/types"
)

var (
	ErrConversationNotFound = errs.NotFoundError("conversation not found")
	ErrInvalidParticipants  = errs.InvalidArgumentError("cannot start a conversation with yourself")
	ErrNotParticipant       = errs.PermissionDeniedError("you are not a participant of this conversation")
)

// conversationCols spells the selected columns out because the table also
// carries the canonical pair key columns, which have no struct counterpart.
const conversationCols = `
	conversations.id,
	conversations.listing_id,
	conversations.last_message,
	conversations.last_message_at,
	conversations.created_at,
	conversations.updated_at
`

// participationJSON is the enriched membership selected alongside a
// conversation. Key names follow the JSON tags of types.Participant.
const participationJSON = `
	json_build_object(
		'userId', participants.user_id,
		'conversationId', participants.conversation_id,
		'otherUserId', participants.other_user_id,
		'createdAt', participants.created_at,
		'otherUser', json_build_object(
			'id', other_user.id,
			'username', other_user.username,
			'avatarUrl', other_user.avatar_url,
			'createdAt', other_user.created_at
		)
	) AS participation
`

const unreadCountJSON = `
	(
		SELECT count(*)
		FROM messages
		WHERE messages.conversation_id = conversations.id
			AND messages.sender_id != @user_id
			AND messages.read = false
	) AS unread_count
`

// ConversationFromParticipants looks a conversation up by its participant
// pair and listing. The lookup is symmetric in the two user IDs.
func (c *Cockroach) ConversationFromParticipants(ctx context.Context, userAID, userBID string, listingID *string) (types.Conversation, error) {
	var out types.Conversation

	lo, hi := pairKey(userAID, userBID)

	q := `
		SELECT ` + conversationCols + `
		FROM conversations
		WHERE conversations.user_lo_id = @user_lo_id
			AND conversations.user_hi_id = @user_hi_id
			AND COALESCE(conversations.listing_id, '') = @listing_key
	`

	rows, err := c.db.Query(ctx, q, pgx.NamedArgs{
		"user_lo_id":  lo,
		"user_hi_id":  hi,
		"listing_key": ptr.Or(listingID, ""),
	})
	if err != nil {
		return out, fmt.Errorf("sql query conversation from participants: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if db.IsNotFoundError(err) {
		return out, ErrConversationNotFound
	}

	if err != nil {
		return out, fmt.Errorf("sql collect conversation from participants: %w", err)
	}

	return out, nil
}

// CreateConversation inserts the conversation and both membership rows as
// one unit. The unique (pair, listing) index makes concurrent creates for
// the same key fail with a unique violation, which EnsureConversation
// resolves by re-fetching.
func (c *Cockroach) CreateConversation(ctx context.Context, in types.OpenConversation) (types.Conversation, error) {
	var out types.Conversation

	if in.OtherUserID == in.LoggedInUserID() {
		return out, ErrInvalidParticipants
	}

	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		conv, err := c.createConversation(ctx, in)
		if err != nil {
			return err
		}

		if err := c.createParticipants(ctx, conv.ID, in.LoggedInUserID(), in.OtherUserID); err != nil {
			return err
		}

		out = conv

		return nil
	})
}

func (c *Cockroach) createConversation(ctx context.Context, in types.OpenConversation) (types.Conversation, error) {
	var out types.Conversation

	lo, hi := pairKey(in.LoggedInUserID(), in.OtherUserID)

	const q = `
		INSERT INTO conversations (id, listing_id, user_lo_id, user_hi_id)
		VALUES (@conversation_id, @listing_id, @user_lo_id, @user_hi_id)
		RETURNING id, listing_id, last_message, last_message_at, created_at, updated_at
	`

	rows, err := c.db.Query(ctx, q, pgx.NamedArgs{
		"conversation_id": id.Generate(),
		"listing_id":      in.ListingID,
		"user_lo_id":      lo,
		"user_hi_id":      hi,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted conversation: %w", err)
	}

	return out, nil
}

func (c *Cockroach) createParticipants(ctx context.Context, conversationID, userID, otherUserID string) error {
	const q = `
		INSERT INTO participants (user_id, conversation_id, other_user_id)
		VALUES (@user_id, @conversation_id, @other_user_id)
			 , (@other_user_id, @conversation_id, @user_id)
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"user_id":         userID,
		"conversation_id": conversationID,
		"other_user_id":   otherUserID,
	})
	if err != nil {
		return fmt.Errorf("sql insert participants: %w", err)
	}

	return nil
}

// EnsureConversation is the find-or-create entry point. Two callers racing
// on the same (pair, listing) key both end up with the single stored row:
// the loser of the insert race catches the unique violation and re-fetches.
func (c *Cockroach) EnsureConversation(ctx context.Context, in types.OpenConversation) (types.Conversation, error) {
	out, err := c.ConversationFromParticipants(ctx, in.LoggedInUserID(), in.OtherUserID, in.ListingID)
	if err == nil {
		return out, nil
	}

	if !errors.Is(err, ErrConversationNotFound) {
		return out, err
	}

	out, err = c.CreateConversation(ctx, in)
	if isUniqueViolation(err) {
		return c.ConversationFromParticipants(ctx, in.LoggedInUserID(), in.OtherUserID, in.ListingID)
	}

	return out, err
}

func (c *Cockroach) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool

	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM participants
			WHERE conversation_id = @conversation_id
				AND user_id = @user_id
		)
	`

	err := c.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
		"user_id":         userID,
	}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql check participant: %w", err)
	}

	return exists, nil
}

// Participants returns the user IDs of a conversation's members.
func (c *Cockroach) Participants(ctx context.Context, conversationID string) ([]string, error) {
	const q = `
		SELECT user_id
		FROM participants
		WHERE conversation_id = @conversation_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select participants: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("sql collect participants: %w", err)
	}

	return out, nil
}

// Conversation fetches one conversation scoped to a member, enriched with
// the other participant's summary and the member's unread count.
func (c *Cockroach) Conversation(ctx context.Context, in types.RetrieveConversation) (types.Conversation, error) {
	var out types.Conversation

	q := `
		SELECT ` + conversationCols + `, ` + participationJSON + `, ` + unreadCountJSON + `
		FROM conversations
		INNER JOIN participants ON participants.conversation_id = conversations.id
		INNER JOIN users AS other_user ON other_user.id = participants.other_user_id
		WHERE conversations.id = @conversation_id
			AND participants.user_id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
		"user_id":         in.LoggedInUserID(),
	})
	if err != nil {
		return out, fmt.Errorf("sql select conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if db.IsNotFoundError(err) {
		return out, ErrConversationNotFound
	}

	if err != nil {
		return out, fmt.Errorf("sql collect conversation: %w", err)
	}

	return out, nil
}

// Conversations lists every conversation the user participates in, most
// recent activity first, conversations without messages last.
func (c *Cockroach) Conversations(ctx context.Context, userID string) ([]types.Conversation, error) {
	q := `
		SELECT ` + conversationCols + `, ` + participationJSON + `, ` + unreadCountJSON + `
		FROM conversations
		INNER JOIN participants ON participants.conversation_id = conversations.id
		INNER JOIN users AS other_user ON other_user.id = participants.other_user_id
		WHERE participants.user_id = @user_id
		ORDER BY conversations.last_message_at DESC NULLS LAST, conversations.created_at DESC
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select conversations: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return nil, fmt.Errorf("sql collect conversations: %w", err)
	}

	return out, nil
}

// pairKey orders two user IDs so the participant pair is stored
// symmetrically.
func pairKey(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}
