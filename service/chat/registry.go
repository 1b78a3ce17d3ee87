package chat

import (
	"sync"
)

// Registry maps userID -> the currently preferred connection. Process-local
// only; a restart starts empty and clients re-auth their sockets.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*Client),
	}
}

// Bind registers c as the connection for userID, last-write-wins. A prior
// connection for the same user is orphaned from routing but NOT closed; its
// own close will not evict the newer entry (see RemoveClient).
func (r *Registry) Bind(userID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.UserID = userID
	r.byUser[userID] = c
}

// Get returns the live connection for userID, if any.
func (r *Registry) Get(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// RemoveClient removes every entry pointing at exactly this client. Match
// is by identity, not by key: an orphaned connection closing must not evict
// the newer mapping registered for the same user.
func (r *Registry) RemoveClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := false
	for user, cur := range r.byUser {
		if cur == c {
			delete(r.byUser, user)
			removed = true
		}
	}
	return removed
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// CloseAll closes every registered socket and resets the map. Shutdown
// only; close errors are irrelevant at that point.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for user, c := range r.byUser {
		_ = c.sock.Close()
		delete(r.byUser, user)
	}
}
