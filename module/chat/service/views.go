package service

import (
	chatmodel "DriveSync/module/chat/model"
)

// MessageView is the wire shape of one message.
type MessageView struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Body           string `json:"body"`
	Seq            int64  `json:"seq"`
	CreateTime     int64  `json:"create_time"` // unix millis
}

// PeerView annotates the counterpart member. LastSeen is "now" while the
// peer is connected, the stored stamp otherwise (zero when unknown).
type PeerView struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Active      bool   `json:"active"`
	LastSeen    int64  `json:"last_seen,omitempty"` // unix millis
}

// ConversationView is the per-member projection of a conversation: the
// peer differs depending on which member is being told.
type ConversationView struct {
	ConversationID string       `json:"conversation_id"`
	Peer           PeerView     `json:"peer"`
	LastMessage    *MessageView `json:"last_message,omitempty"`
	ReadSeq        int64        `json:"read_seq"`      // this member's pointer
	PeerReadSeq    int64        `json:"peer_read_seq"` // counterpart's pointer
}

func toMessageView(m *chatmodel.Message) *MessageView {
	if m == nil {
		return nil
	}
	return &MessageView{
		MessageID:      m.MessageID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		Seq:            m.Seq,
		CreateTime:     m.CreateTime.UnixMilli(),
	}
}
