package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryPresenceTracksOpenHandles(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.IsOnline("alice"))

	c1 := NewClient("conn-1", nil, 8)
	c2 := NewClient("conn-2", nil, 8)
	r.Register("alice", c1)
	r.Register("alice", c2)
	require.True(t, r.IsOnline("alice"))
	require.Len(t, r.HandlesFor("alice"), 2)
	require.Same(t, c1, r.GetByConnID("conn-1"))

	r.Unregister("alice", "conn-1")
	require.True(t, r.IsOnline("alice"))
	require.Nil(t, r.GetByConnID("conn-1"))

	// dropping the last handle means true absence
	r.Unregister("alice", "conn-2")
	require.False(t, r.IsOnline("alice"))
	require.Nil(t, r.HandlesFor("alice"))
}

func TestRegistryIdempotentRegister(t *testing.T) {
	r := NewRegistry()
	c := NewClient("conn-1", nil, 8)
	r.Register("alice", c)
	r.Register("alice", c)
	require.Len(t, r.HandlesFor("alice"), 1)

	// unknown handle is a no-op
	r.Unregister("alice", "conn-ghost")
	require.True(t, r.IsOnline("alice"))
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	const users = 8
	const connsPerUser = 16

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for c := 0; c < connsPerUser; c++ {
			wg.Add(1)
			go func(u, c int) {
				defer wg.Done()
				user := fmt.Sprintf("user-%d", u)
				connID := fmt.Sprintf("conn-%d-%d", u, c)
				r.Register(user, NewClient(connID, nil, 1))
				if c%2 == 0 {
					r.Unregister(user, connID)
				}
			}(u, c)
		}
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		user := fmt.Sprintf("user-%d", u)
		require.True(t, r.IsOnline(user))
		require.Len(t, r.HandlesFor(user), connsPerUser/2)
	}
}
