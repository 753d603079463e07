package ws

import (
	"context"
	"time"

	"DriveSync/service/storage"
)

// Presence is the read-only oracle over the registry: callers depend on
// the boolean fact, not on registry internals. LastSeen falls back to
// the redis stamp for offline users; the store may be nil.
type Presence struct {
	reg      *Registry
	lastSeen *storage.LastSeenStore
}

func NewPresence(reg *Registry, lastSeen *storage.LastSeenStore) *Presence {
	return &Presence{reg: reg, lastSeen: lastSeen}
}

func (p *Presence) IsActive(user string) bool {
	return p.reg.IsOnline(user)
}

// LastSeen returns now for a connected user, the stored stamp otherwise
// (zero when unknown or when the mirror is unavailable).
func (p *Presence) LastSeen(ctx context.Context, user string) time.Time {
	if p.reg.IsOnline(user) {
		return time.Now()
	}
	ts, err := p.lastSeen.Lookup(ctx, user)
	if err != nil {
		return time.Time{}
	}
	return ts
}
