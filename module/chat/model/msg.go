package model

import (
	"time"
)

// Message belongs to one conversation. Seq is a snowflake id and is
// strictly increasing in creation order, so read-receipt pointers are a
// plain int64 comparison.
type Message struct {
	MessageID      string    `bson:"message_id"`
	ConversationID string    `bson:"conversation_id"`
	SenderID       string    `bson:"sender_id"`
	Body           string    `bson:"body"`
	Seq            int64     `bson:"seq"`
	CreateTime     time.Time `bson:"create_time"`
}

const (
	MessageFieldMessageID      = "message_id"
	MessageFieldConversationID = "conversation_id"
	MessageFieldSenderID       = "sender_id"
	MessageFieldSeq            = "seq"
	MessageFieldCreateTime     = "create_time"
)

func (m *Message) GetTableName() string {
	return "messages"
}

// ReadReceipt is the per (conversation, member) read pointer. ReadSeq is
// monotonic: it only ever moves to a larger message seq.
type ReadReceipt struct {
	ConversationID string `bson:"conversation_id"`
	UserID         string `bson:"user_id"`
	ReadSeq        int64  `bson:"read_seq"`
	UpdatedAt      int64  `bson:"updated_at"` // unix millis
}

const (
	ReceiptFieldConversationID = "conversation_id"
	ReceiptFieldUserID         = "user_id"
	ReceiptFieldReadSeq        = "read_seq"
	ReceiptFieldUpdatedAt      = "updated_at"
)

func (r *ReadReceipt) GetTableName() string {
	return "read_receipts"
}
