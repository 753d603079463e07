package service

import (
	"context"
	"strings"
	"time"

	"DriveSync/logger"
	chatmodel "DriveSync/module/chat/model"
	chatstore "DriveSync/module/chat/store"
	userservice "DriveSync/module/user/service"
	"DriveSync/tools/errs"
	"DriveSync/tools/ids"

	"github.com/google/uuid"
)

// Presence answers whether a user currently holds at least one open
// connection, and when they were last seen otherwise.
type Presence interface {
	IsActive(user string) bool
	LastSeen(ctx context.Context, user string) time.Time
}

// Broadcaster fans a changed conversation out to every open connection of
// every member. Fire-and-forget.
type Broadcaster interface {
	SyncConversation(ctx context.Context, conv *chatmodel.Conversation)
}

// Messaging orchestrates conversation creation, access validation,
// message posting and read receipts against the store, and triggers
// broadcast after successful writes.
type Messaging struct {
	store    chatstore.Store
	users    userservice.Resolver
	presence Presence
	bcast    Broadcaster
}

func NewMessaging(store chatstore.Store, users userservice.Resolver, presence Presence) *Messaging {
	return &Messaging{store: store, users: users, presence: presence}
}

// AttachBroadcaster resolves the construction cycle between the
// messaging service and the websocket layer; called once during wiring.
func (s *Messaging) AttachBroadcaster(b Broadcaster) { s.bcast = b }

// CreateConversationBetween persists a new two-member conversation.
// No dedup: a second call for the same pair creates a second
// conversation (the store owns any dedup policy, this layer does not
// guess one).
func (s *Messaging) CreateConversationBetween(ctx context.Context, requestor, target string) (*chatmodel.Conversation, error) {
	if strings.TrimSpace(requestor) == "" {
		return nil, errs.ErrNotAuthorized
	}
	if requestor == target {
		return nil, errs.ErrSameParties
	}
	u, err := s.users.ResolveUser(ctx, target)
	if err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	if u == nil {
		return nil, errs.ErrInvalidTargetUser.WithDetail(target)
	}

	now := time.Now()
	conv := &chatmodel.Conversation{
		ConversationID: uuid.NewString(),
		Members:        []string{requestor, target},
		CreateTime:     now,
		LastMessageAt:  now,
	}
	if err := s.store.InsertConversation(ctx, conv); err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	return conv, nil
}

// ValidateAccess is the mandatory gate before every other conversation
// operation: caller resolvable, conversation present, caller a member.
func (s *Messaging) ValidateAccess(ctx context.Context, conversationID, requestor string) (*chatmodel.Conversation, error) {
	if strings.TrimSpace(requestor) == "" {
		return nil, errs.ErrNotAuthorized
	}
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	if conv == nil {
		return nil, errs.ErrInvalidConversation.WithDetail(conversationID)
	}
	if !conv.HasMember(requestor) {
		return nil, errs.ErrAccessDenied.WithDetail("not a member")
	}
	return conv, nil
}

// SendMessage persists the message, then broadcasts before returning so
// the sender's other sessions and the peer observe the state the caller
// sees. A failed save produces no partial message and no broadcast.
func (s *Messaging) SendMessage(ctx context.Context, author, conversationID, body string) (*chatmodel.Message, error) {
	conv, err := s.ValidateAccess(ctx, conversationID, author)
	if err != nil {
		return nil, err
	}

	msg := &chatmodel.Message{
		MessageID:      uuid.NewString(),
		ConversationID: conv.ConversationID,
		SenderID:       author,
		Body:           body,
		Seq:            ids.Generate(),
		CreateTime:     time.Now(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}

	conv.LastMessageAt = msg.CreateTime
	s.broadcast(ctx, conv)
	return msg, nil
}

// ReadMessage advances the reader's receipt pointer to the given
// message, never backwards.
func (s *Messaging) ReadMessage(ctx context.Context, reader, conversationID, messageID string) error {
	conv, err := s.ValidateAccess(ctx, conversationID, reader)
	if err != nil {
		return err
	}
	msg, err := s.store.GetMessage(ctx, conv.ConversationID, messageID)
	if err != nil {
		return errs.ErrDb.WithDetail(err.Error())
	}
	if msg == nil {
		return errs.ErrMessageNotFound.WithDetail(messageID)
	}
	if _, err := s.store.MarkReadTo(ctx, conv.ConversationID, reader, msg.Seq); err != nil {
		return errs.ErrDb.WithDetail(err.Error())
	}
	s.broadcast(ctx, conv)
	return nil
}

// GetMessages returns the conversation's stored messages, oldest first.
func (s *Messaging) GetMessages(ctx context.Context, requestor, conversationID string) ([]*MessageView, error) {
	conv, err := s.ValidateAccess(ctx, conversationID, requestor)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, conv.ConversationID)
	if err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	out := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageView(m))
	}
	return out, nil
}

// ListConversationsFor returns the user's conversations, most recently
// active first, each annotated with the peer's live presence.
func (s *Messaging) ListConversationsFor(ctx context.Context, user string) ([]*ConversationView, error) {
	if strings.TrimSpace(user) == "" {
		return nil, errs.ErrNotAuthorized
	}
	convs, err := s.store.ListConversationsOf(ctx, user)
	if err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	out := make([]*ConversationView, 0, len(convs))
	for _, conv := range convs {
		view, err := s.BuildView(ctx, conv, user)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// BuildView projects the conversation for one member. Also used by the
// websocket broadcaster, which needs a distinct view per member.
func (s *Messaging) BuildView(ctx context.Context, conv *chatmodel.Conversation, member string) (*ConversationView, error) {
	peerID := conv.PeerOf(member)

	peer := PeerView{UserID: peerID}
	if u, err := s.users.ResolveUser(ctx, peerID); err == nil && u != nil {
		peer.DisplayName = u.DisplayName
	}
	if s.presence != nil && peerID != "" {
		if s.presence.IsActive(peerID) {
			// currently online beats any historical stamp
			peer.Active = true
			peer.LastSeen = time.Now().UnixMilli()
		} else if ls := s.presence.LastSeen(ctx, peerID); !ls.IsZero() {
			peer.LastSeen = ls.UnixMilli()
		}
	}

	last, err := s.store.LastMessage(ctx, conv.ConversationID)
	if err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	readSeq, err := s.store.GetReadSeq(ctx, conv.ConversationID, member)
	if err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	peerReadSeq := int64(0)
	if peerID != "" {
		if peerReadSeq, err = s.store.GetReadSeq(ctx, conv.ConversationID, peerID); err != nil {
			return nil, errs.ErrDb.WithDetail(err.Error())
		}
	}

	return &ConversationView{
		ConversationID: conv.ConversationID,
		Peer:           peer,
		LastMessage:    toMessageView(last),
		ReadSeq:        readSeq,
		PeerReadSeq:    peerReadSeq,
	}, nil
}

func (s *Messaging) broadcast(ctx context.Context, conv *chatmodel.Conversation) {
	if s.bcast == nil {
		logger.Warnf("[messaging] no broadcaster attached, conv=%s not synced", conv.ConversationID)
		return
	}
	s.bcast.SyncConversation(ctx, conv)
}
