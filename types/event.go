package types

import "time"

// Event is a single realtime notification pushed over live sessions.
// Delivery is best-effort: anything a client misses it recovers by
// re-fetching, never by replay.
type Event struct {
	Type    string `json:"type" msgpack:"type"`
	Payload any    `json:"payload" msgpack:"payload"`
}

const (
	EventNewMessage          = "new-message"
	EventConversationUpdated = "conversation-updated"
	EventMessagesRead        = "messages-read"
	EventUserTyping          = "user-typing"
)

type NewMessagePayload struct {
	ConversationID string  `json:"conversationId" msgpack:"conversationId"`
	Message        Message `json:"message" msgpack:"message"`
}

type ConversationUpdatedPayload struct {
	ConversationID string    `json:"conversationId" msgpack:"conversationId"`
	LastMessage    string    `json:"lastMessage" msgpack:"lastMessage"`
	LastMessageAt  time.Time `json:"lastMessageAt" msgpack:"lastMessageAt"`
}

type MessagesReadPayload struct {
	ConversationID string `json:"conversationId" msgpack:"conversationId"`
	ReaderID       string `json:"readerId" msgpack:"readerId"`
}

type UserTypingPayload struct {
	ConversationID string `json:"conversationId" msgpack:"conversationId"`
	UserID         string `json:"userId" msgpack:"userId"`
	Typing         bool   `json:"typing" msgpack:"typing"`
}

func NewMessageEvent(conversationID string, msg Message) Event {
	return Event{
		Type: EventNewMessage,
		Payload: NewMessagePayload{
			ConversationID: conversationID,
			Message:        msg,
		},
	}
}

func ConversationUpdatedEvent(conversationID, lastMessage string, lastMessageAt time.Time) Event {
	return Event{
		Type: EventConversationUpdated,
		Payload: ConversationUpdatedPayload{
			ConversationID: conversationID,
			LastMessage:    lastMessage,
			LastMessageAt:  lastMessageAt,
		},
	}
}

func MessagesReadEvent(conversationID, readerID string) Event {
	return Event{
		Type: EventMessagesRead,
		Payload: MessagesReadPayload{
			ConversationID: conversationID,
			ReaderID:       readerID,
		},
	}
}

func UserTypingEvent(conversationID, userID string, typing bool) Event {
	return Event{
		Type: EventUserTyping,
		Payload: UserTypingPayload{
			ConversationID: conversationID,
			UserID:         userID,
			Typing:         typing,
		},
	}
}
