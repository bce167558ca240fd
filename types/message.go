package types

import (
	"time"
	"unicode/utf8"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/textutil"
	"github.com/immoalbania/immo/validator"
)

type Message struct {
	ID             string      `db:"id" json:"id"`
	ConversationID string      `db:"conversation_id" json:"conversationId"`
	SenderID       string      `db:"sender_id" json:"senderId"`
	Content        string      `db:"content" json:"content"`
	Kind           MessageKind `db:"kind" json:"kind"`
	Read           bool        `db:"read" json:"read"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`

	Sender *User `db:"sender,omitempty" json:"sender,omitempty"`
}

type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
	MessageKindFile  MessageKind = "file"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindImage, MessageKindFile:
		return true
	}
	return false
}

func (k MessageKind) String() string {
	return string(k)
}

type SendMessage struct {
	ConversationID string
	Content        string
	Kind           MessageKind

	loggedInUserID string
}

func (in *SendMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in SendMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *SendMessage) Validate() error {
	v := validator.New()

	in.Content = textutil.SmartTrim(in.Content)
	if in.Kind == "" {
		in.Kind = MessageKindText
	}

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	if in.Content == "" {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 1000 {
		v.AddError("Content", "Content must be at most 1000 characters")
	}

	if !in.Kind.Valid() {
		v.AddError("Kind", "Kind must be one of: text, image, file")
	}

	return v.AsError()
}

type ListMessages struct {
	ConversationID string

	loggedInUserID string
}

func (in *ListMessages) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListMessages) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListMessages) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}
	return v.AsError()
}
