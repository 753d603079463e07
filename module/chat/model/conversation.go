package model

import (
	"time"
)

// Conversation is a direct chat between exactly two members. Membership
// is read-mostly from the gateway's point of view; messages are
// append-only.
type Conversation struct {
	ConversationID string    `bson:"conversation_id"`
	Members        []string  `bson:"members"` // exactly two user ids
	CreateTime     time.Time `bson:"create_time"`
	LastMessageAt  time.Time `bson:"last_message_at"` // drives list ordering
}

const (
	ConversationFieldConversationID = "conversation_id"
	ConversationFieldMembers        = "members"
	ConversationFieldCreateTime     = "create_time"
	ConversationFieldLastMessageAt  = "last_message_at"
)

func (c *Conversation) GetTableName() string {
	return "conversations"
}

// HasMember reports whether user belongs to the conversation.
func (c *Conversation) HasMember(user string) bool {
	for _, m := range c.Members {
		if m == user {
			return true
		}
	}
	return false
}

// PeerOf returns the member other than user; empty when user is not a
// member.
func (c *Conversation) PeerOf(user string) string {
	for _, m := range c.Members {
		if m != user {
			return m
		}
	}
	return ""
}
