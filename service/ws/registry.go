package ws

import (
	"sync"
)

// Registry maps a user identity to its set of open connections. Pure
// bookkeeping: a user appears iff it has at least one open handle, and
// the entry disappears the instant its set empties.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // user -> conn_id -> client
	byConn map[string]*Client            // conn_id -> client
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

// Register adds the client under user. Idempotent for the same
// (user, conn_id) pair.
func (r *Registry) Register(user string, c *Client) {
	if user == "" || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byUser[user]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[user] = m
	}
	m[c.ConnID] = c
	r.byConn[c.ConnID] = c
}

// Unregister removes the handle; removing the last one deletes the user
// entry entirely. Unknown handles are a no-op.
func (r *Registry) Unregister(user, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.byUser[user]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byUser, user)
		}
	}
	delete(r.byConn, connID)
}

// IsOnline reports true absence, not an empty-but-present set.
func (r *Registry) IsOnline(user string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[user]) > 0
}

// HandlesFor returns the user's open connections.
func (r *Registry) HandlesFor(user string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[user]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// GetByConnID returns the client for a handle, or nil.
func (r *Registry) GetByConnID(connID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[connID]
}
