package types

import "time"

type Participant struct {
	UserID         string    `db:"user_id" json:"userId"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	OtherUserID    string    `db:"other_user_id" json:"otherUserId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`

	OtherUser *User `db:"other_user,omitempty" json:"otherUser,omitempty"`
}
