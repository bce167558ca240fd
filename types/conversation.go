package types

import (
	"time"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/validator"
)

type Conversation struct {
	ID            string     `db:"id" json:"id"`
	ListingID     *string    `db:"listing_id" json:"listingId"`
	LastMessage   *string    `db:"last_message" json:"lastMessage"`
	LastMessageAt *time.Time `db:"last_message_at" json:"lastMessageAt"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`

	Participation *Participant `db:"participation,omitempty" json:"participation,omitempty"`
	UnreadCount   int64        `db:"unread_count" json:"unreadCount"`
}

type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

type OpenConversation struct {
	OtherUserID string
	ListingID   *string

	loggedInUserID string
}

func (in *OpenConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in OpenConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *OpenConversation) Validate() error {
	v := validator.New()

	if in.OtherUserID == "" {
		v.AddError("OtherUserID", "Other user ID is required")
	}
	if !id.Valid(in.OtherUserID) {
		v.AddError("OtherUserID", "Other user ID is invalid")
	}
	if in.ListingID != nil && *in.ListingID == "" {
		v.AddError("ListingID", "Listing ID cannot be empty")
	}

	return v.AsError()
}

type RetrieveConversation struct {
	ConversationID string

	loggedInUserID string
}

func (in *RetrieveConversation) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RetrieveConversation) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RetrieveConversation) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}

type MarkConversationRead struct {
	ConversationID string

	loggedInUserID string
}

func (in *MarkConversationRead) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in MarkConversationRead) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *MarkConversationRead) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}

type SignalTyping struct {
	ConversationID string
	Typing         bool

	loggedInUserID string
}

func (in *SignalTyping) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in SignalTyping) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *SignalTyping) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}
