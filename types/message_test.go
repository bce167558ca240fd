package types

import (
	"strings"
	"testing"

	"github.com/immoalbania/immo/id"
)

func TestSendMessage_Validate(t *testing.T) {
	conversationID := id.Generate()

	tt := []struct {
		name        string
		in          SendMessage
		wantErr     bool
		wantContent string
		wantKind    MessageKind
	}{
		{
			name:        "valid_text",
			in:          SendMessage{ConversationID: conversationID, Content: "hello"},
			wantContent: "hello",
			wantKind:    MessageKindText,
		},
		{
			name:        "normalizes_whitespace",
			in:          SendMessage{ConversationID: conversationID, Content: "  hello   world  \n\n\n\nbye  "},
			wantContent: "hello world\n\nbye",
			wantKind:    MessageKindText,
		},
		{
			name:        "explicit_kind",
			in:          SendMessage{ConversationID: conversationID, Content: "https://cdn.example.com/img.png", Kind: MessageKindImage},
			wantContent: "https://cdn.example.com/img.png",
			wantKind:    MessageKindImage,
		},
		{
			name:    "empty_content",
			in:      SendMessage{ConversationID: conversationID, Content: "   "},
			wantErr: true,
		},
		{
			name:    "content_too_long",
			in:      SendMessage{ConversationID: conversationID, Content: strings.Repeat("x", 1001)},
			wantErr: true,
		},
		{
			name:    "unknown_kind",
			in:      SendMessage{ConversationID: conversationID, Content: "hello", Kind: "carrier-pigeon"},
			wantErr: true,
		},
		{
			name:    "missing_conversation_id",
			in:      SendMessage{Content: "hello"},
			wantErr: true,
		},
		{
			name:    "malformed_conversation_id",
			in:      SendMessage{ConversationID: "not-an-id", Content: "hello"},
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("got error %v, want error: %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if tc.in.Content != tc.wantContent {
				t.Fatalf("got content %q, want %q", tc.in.Content, tc.wantContent)
			}
			if tc.in.Kind != tc.wantKind {
				t.Fatalf("got kind %q, want %q", tc.in.Kind, tc.wantKind)
			}
		})
	}
}

func TestMessageKind_Valid(t *testing.T) {
	for _, kind := range []MessageKind{MessageKindText, MessageKindImage, MessageKindFile} {
		if !kind.Valid() {
			t.Errorf("expected %q to be valid", kind)
		}
	}
	for _, kind := range []MessageKind{"", "video", "TEXT"} {
		if kind.Valid() {
			t.Errorf("expected %q to be invalid", kind)
		}
	}
}
