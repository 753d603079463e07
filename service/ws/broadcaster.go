package ws

import (
	"context"

	"DriveSync/logger"
	chatmodel "DriveSync/module/chat/model"
	chatservice "DriveSync/module/chat/service"
)

// ViewSource builds the per-member projection of a conversation; the
// messaging service implements it.
type ViewSource interface {
	BuildView(ctx context.Context, conv *chatmodel.Conversation, member string) (*chatservice.ConversationView, error)
}

// Broadcaster implements chat's Broadcaster on top of the registry and
// the fanout pool: one view per member, one frame per open connection.
type Broadcaster struct {
	reg    *Registry
	fanout *Fanout
	views  ViewSource
}

func NewBroadcaster(reg *Registry, fanout *Fanout, views ViewSource) *Broadcaster {
	return &Broadcaster{reg: reg, fanout: fanout, views: views}
}

// SyncConversation delivers the member-specific view to every open
// connection of every member, the sender's other sessions included. A
// member with no connections receives nothing and refetches on next
// connect.
func (b *Broadcaster) SyncConversation(ctx context.Context, conv *chatmodel.Conversation) {
	for _, member := range conv.Members {
		conns := b.reg.HandlesFor(member)
		if len(conns) == 0 {
			continue
		}
		view, err := b.views.BuildView(ctx, conv, member)
		if err != nil {
			logger.Errorf("[broadcast] build view conv=%s member=%s err=%v",
				conv.ConversationID, member, err)
			continue
		}
		b.fanout.Broadcast(conns, BuildSyncConv(view))
	}
}
