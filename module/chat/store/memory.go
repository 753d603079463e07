package store

import (
	"context"
	"sort"
	"sync"

	chatmodel "DriveSync/module/chat/model"
)

// MemoryStore is the in-memory twin of MongoStore, for tests and local
// runs without a database. Same contract, including the $max-style
// receipt behavior.
type MemoryStore struct {
	mu       sync.RWMutex
	convs    map[string]*chatmodel.Conversation
	msgs     map[string][]*chatmodel.Message // conversationID -> seq asc
	receipts map[receiptKey]int64

	// FailNextInsertMessage makes the next InsertMessage return this
	// error; lets tests exercise the no-partial-state path.
	FailNextInsertMessage error
}

type receiptKey struct {
	conversationID string
	userID         string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		convs:    make(map[string]*chatmodel.Conversation),
		msgs:     make(map[string][]*chatmodel.Message),
		receipts: make(map[receiptKey]int64),
	}
}

func (s *MemoryStore) InsertConversation(_ context.Context, c *chatmodel.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.convs[c.ConversationID] = &cp
	return nil
}

func (s *MemoryStore) GetConversation(_ context.Context, conversationID string) (*chatmodel.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[conversationID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListConversationsOf(_ context.Context, user string) ([]*chatmodel.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*chatmodel.Conversation
	for _, c := range s.convs {
		if c.HasMember(user) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (s *MemoryStore) InsertMessage(_ context.Context, m *chatmodel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextInsertMessage; err != nil {
		s.FailNextInsertMessage = nil
		return err
	}
	cp := *m
	s.msgs[m.ConversationID] = append(s.msgs[m.ConversationID], &cp)
	if c, ok := s.convs[m.ConversationID]; ok && m.CreateTime.After(c.LastMessageAt) {
		c.LastMessageAt = m.CreateTime
	}
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, conversationID, messageID string) (*chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.msgs[conversationID] {
		if m.MessageID == messageID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID string) ([]*chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.msgs[conversationID]
	out := make([]*chatmodel.Message, 0, len(src))
	for _, m := range src {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) LastMessage(_ context.Context, conversationID string) (*chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.msgs[conversationID]
	if len(src) == 0 {
		return nil, nil
	}
	cp := *src[len(src)-1]
	return &cp, nil
}

func (s *MemoryStore) MarkReadTo(_ context.Context, conversationID, user string, seq int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := receiptKey{conversationID: conversationID, userID: user}
	if cur, ok := s.receipts[k]; !ok || seq > cur {
		s.receipts[k] = seq
	}
	return s.receipts[k], nil
}

func (s *MemoryStore) GetReadSeq(_ context.Context, conversationID, user string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receipts[receiptKey{conversationID: conversationID, userID: user}], nil
}
