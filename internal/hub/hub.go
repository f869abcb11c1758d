// Package hub tracks live websocket connections grouped by user
// identifier. Delivering "to user X" fans out to every connection in X's
// group; a user with no live connections is a silent no-op.
package hub

import "sync"

// Hub is safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
}

func New() *Hub {
	return &Hub{groups: make(map[string]map[*Client]struct{})}
}

// Register adds the client to its user's broadcast group.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[c.UserID]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[c.UserID] = group
	}
	group[c] = struct{}{}
}

// Unregister removes the client and reports how many connections the user
// still has, so the caller can flip presence to offline on the last one.
func (h *Hub) Unregister(c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[c.UserID]
	if !ok {
		return 0
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, c.UserID)
		return 0
	}
	return len(group)
}

// SendToUser queues payload on every live connection of userID and returns
// the number of connections reached. Slow consumers drop the frame rather
// than stall the sender.
func (h *Hub) SendToUser(userID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.groups[userID] {
		if c.Enqueue(payload) {
			n++
		}
	}
	return n
}

// Connections returns the number of live connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}
