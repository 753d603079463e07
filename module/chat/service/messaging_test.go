package service

import (
	"context"
	"errors"
	"testing"
	"time"

	chatmodel "DriveSync/module/chat/model"
	chatstore "DriveSync/module/chat/store"
	usermodel "DriveSync/module/user/model"
	userservice "DriveSync/module/user/service"
	"DriveSync/tools/errs"

	"github.com/stretchr/testify/require"
)

type fakePresence struct {
	active   map[string]bool
	lastSeen map[string]time.Time
}

func (p *fakePresence) IsActive(user string) bool { return p.active[user] }

func (p *fakePresence) LastSeen(_ context.Context, user string) time.Time {
	return p.lastSeen[user]
}

type recordingBroadcaster struct {
	synced []string // conversation ids, in call order
}

func (b *recordingBroadcaster) SyncConversation(_ context.Context, conv *chatmodel.Conversation) {
	b.synced = append(b.synced, conv.ConversationID)
}

func newTestMessaging(t *testing.T) (*Messaging, *chatstore.MemoryStore, *userservice.MemoryResolver, *recordingBroadcaster) {
	t.Helper()
	store := chatstore.NewMemoryStore()
	users := userservice.NewMemoryResolver()
	users.Put(&usermodel.User{UserID: "alice", DisplayName: "Alice", Role: usermodel.RoleStudent})
	users.Put(&usermodel.User{UserID: "bob", DisplayName: "Bob", Role: usermodel.RoleInstructor})
	bcast := &recordingBroadcaster{}
	m := NewMessaging(store, users, &fakePresence{
		active:   map[string]bool{},
		lastSeen: map[string]time.Time{},
	})
	m.AttachBroadcaster(bcast)
	return m, store, users, bcast
}

func TestSendMessageRoundTrip(t *testing.T) {
	m, _, _, bcast := newTestMessaging(t)
	ctx := context.Background()

	conv, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ConversationID)

	msg, err := m.SendMessage(ctx, "alice", conv.ConversationID, "hello")
	require.NoError(t, err)
	require.Positive(t, msg.Seq)

	got, err := m.GetMessages(ctx, "bob", conv.ConversationID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hello", got[0].Body)
	require.Equal(t, "alice", got[0].SenderID)

	require.Equal(t, []string{conv.ConversationID}, bcast.synced)
}

func TestCreateConversationErrors(t *testing.T) {
	m, _, _, _ := newTestMessaging(t)
	ctx := context.Background()

	_, err := m.CreateConversationBetween(ctx, "", "bob")
	require.True(t, errs.ErrNotAuthorized.Is(err))

	_, err = m.CreateConversationBetween(ctx, "alice", "alice")
	require.True(t, errs.ErrSameParties.Is(err))

	_, err = m.CreateConversationBetween(ctx, "alice", "nobody")
	require.True(t, errs.ErrInvalidTargetUser.Is(err))
}

func TestCreateConversationNoDedup(t *testing.T) {
	m, _, _, _ := newTestMessaging(t)
	ctx := context.Background()

	c1, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)
	c2, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotEqual(t, c1.ConversationID, c2.ConversationID)

	convs, err := m.ListConversationsFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, convs, 2)
}

func TestAccessGate(t *testing.T) {
	m, _, users, _ := newTestMessaging(t)
	ctx := context.Background()
	users.Put(&usermodel.User{UserID: "carol", DisplayName: "Carol", Role: usermodel.RoleStudent})

	conv, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = m.SendMessage(ctx, "carol", conv.ConversationID, "intruding")
	require.True(t, errs.ErrAccessDenied.Is(err))

	_, err = m.GetMessages(ctx, "carol", conv.ConversationID)
	require.True(t, errs.ErrAccessDenied.Is(err))

	_, err = m.SendMessage(ctx, "alice", "no-such-conv", "hi")
	require.True(t, errs.ErrInvalidConversation.Is(err))
}

func TestReadReceiptMonotonic(t *testing.T) {
	m, store, _, _ := newTestMessaging(t)
	ctx := context.Background()

	conv, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)

	m1, err := m.SendMessage(ctx, "alice", conv.ConversationID, "first")
	require.NoError(t, err)
	m2, err := m.SendMessage(ctx, "alice", conv.ConversationID, "second")
	require.NoError(t, err)
	require.Greater(t, m2.Seq, m1.Seq)

	require.NoError(t, m.ReadMessage(ctx, "bob", conv.ConversationID, m2.MessageID))
	seq, err := store.GetReadSeq(ctx, conv.ConversationID, "bob")
	require.NoError(t, err)
	require.Equal(t, m2.Seq, seq)

	// reading an older message never moves the pointer backwards
	require.NoError(t, m.ReadMessage(ctx, "bob", conv.ConversationID, m1.MessageID))
	seq, err = store.GetReadSeq(ctx, conv.ConversationID, "bob")
	require.NoError(t, err)
	require.Equal(t, m2.Seq, seq)
}

func TestReadUnknownMessage(t *testing.T) {
	m, _, _, _ := newTestMessaging(t)
	ctx := context.Background()

	conv, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)

	err = m.ReadMessage(ctx, "alice", conv.ConversationID, "missing-id")
	require.True(t, errs.ErrMessageNotFound.Is(err))
}

func TestFailedSaveNoBroadcast(t *testing.T) {
	m, store, _, bcast := newTestMessaging(t)
	ctx := context.Background()

	conv, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)

	store.FailNextInsertMessage = errors.New("write refused")
	_, err = m.SendMessage(ctx, "alice", conv.ConversationID, "doomed")
	require.True(t, errs.ErrDb.Is(err))
	require.Empty(t, bcast.synced)

	msgs, err := m.GetMessages(ctx, "alice", conv.ConversationID)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestListConversationsOrderedByActivity(t *testing.T) {
	m, _, users, _ := newTestMessaging(t)
	ctx := context.Background()
	users.Put(&usermodel.User{UserID: "carol", DisplayName: "Carol", Role: usermodel.RoleStudent})

	older, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)
	newer, err := m.CreateConversationBetween(ctx, "alice", "carol")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	_, err = m.SendMessage(ctx, "alice", older.ConversationID, "bump")
	require.NoError(t, err)

	views, err := m.ListConversationsFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, older.ConversationID, views[0].ConversationID)
	require.Equal(t, newer.ConversationID, views[1].ConversationID)
}

func TestBuildViewPresence(t *testing.T) {
	store := chatstore.NewMemoryStore()
	users := userservice.NewMemoryResolver()
	users.Put(&usermodel.User{UserID: "alice", DisplayName: "Alice"})
	users.Put(&usermodel.User{UserID: "bob", DisplayName: "Bob"})

	stamp := time.Now().Add(-time.Hour)
	presence := &fakePresence{
		active:   map[string]bool{"bob": false},
		lastSeen: map[string]time.Time{"bob": stamp},
	}
	m := NewMessaging(store, users, presence)
	m.AttachBroadcaster(&recordingBroadcaster{})
	ctx := context.Background()

	conv, err := m.CreateConversationBetween(ctx, "alice", "bob")
	require.NoError(t, err)

	view, err := m.BuildView(ctx, conv, "alice")
	require.NoError(t, err)
	require.Equal(t, "bob", view.Peer.UserID)
	require.Equal(t, "Bob", view.Peer.DisplayName)
	require.False(t, view.Peer.Active)
	require.Equal(t, stamp.UnixMilli(), view.Peer.LastSeen)

	presence.active["bob"] = true
	view, err = m.BuildView(ctx, conv, "alice")
	require.NoError(t, err)
	require.True(t, view.Peer.Active)
	require.GreaterOrEqual(t, view.Peer.LastSeen, stamp.UnixMilli())
}
