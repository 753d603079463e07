package store

import (
	"context"

	chatmodel "DriveSync/module/chat/model"
)

// Store is the persistence collaborator for conversations, messages and
// read receipts. Lookups return (nil, nil) when the entity is absent;
// errors are infrastructure failures only.
type Store interface {
	InsertConversation(ctx context.Context, c *chatmodel.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*chatmodel.Conversation, error)
	// ListConversationsOf returns user's conversations, most recently
	// active first.
	ListConversationsOf(ctx context.Context, user string) ([]*chatmodel.Conversation, error)

	// InsertMessage persists the message and bumps the conversation's
	// last-message watermark.
	InsertMessage(ctx context.Context, m *chatmodel.Message) error
	GetMessage(ctx context.Context, conversationID, messageID string) (*chatmodel.Message, error)
	// ListMessages returns the conversation's messages, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]*chatmodel.Message, error)
	LastMessage(ctx context.Context, conversationID string) (*chatmodel.Message, error)

	// MarkReadTo advances the (conversation, user) read pointer to seq,
	// never backwards, and returns the pointer after the call.
	MarkReadTo(ctx context.Context, conversationID, user string, seq int64) (int64, error)
	GetReadSeq(ctx context.Context, conversationID, user string) (int64, error)
}
