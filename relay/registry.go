package relay

import "sync"

// Client is one live connection's handle. The transport drains Outbox;
// pushes never block, a slow consumer just misses frames until it
// catches up on the next full sync.
type Client struct {
	send chan []byte
}

// NewClient creates a connection handle with the given outbox depth.
func NewClient(buf int) *Client {
	if buf <= 0 {
		buf = 8
	}
	return &Client{send: make(chan []byte, buf)}
}

// Outbox returns the channel of encoded frames to write to the socket.
func (c *Client) Outbox() <-chan []byte { return c.send }

func (c *Client) push(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

// Registry tracks which live connections belong to which user identity.
type Registry struct {
	mu    sync.Mutex
	users map[string]map[*Client]struct{}
	bound map[*Client]string
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[*Client]struct{}),
		bound: make(map[*Client]string),
	}
}

// Bind associates the client with a user identity. Rebinding moves the
// client out of its previous user's set first.
func (r *Registry) Bind(c *Client, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.bound[c]; ok {
		r.removeLocked(c, prev)
	}
	set := r.users[userID]
	if set == nil {
		set = make(map[*Client]struct{})
		r.users[userID] = set
	}
	set[c] = struct{}{}
	r.bound[c] = userID
}

// Release removes the client. Releasing an unknown client is a no-op;
// when a user's last connection leaves, the user entry is dropped.
func (r *Registry) Release(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.bound[c]
	if !ok {
		return
	}
	r.removeLocked(c, userID)
	delete(r.bound, c)
}

func (r *Registry) removeLocked(c *Client, userID string) {
	if set, ok := r.users[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.users, userID)
		}
	}
}

// UserOf reports the identity the client registered under, if any.
func (r *Registry) UserOf(c *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.bound[c]
	return userID, ok
}

// Connections returns the number of live connections for a user.
func (r *Registry) Connections(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users[userID])
}

// Broadcast pushes an encoded frame to every connection bound to userID.
func (r *Registry) Broadcast(userID string, msg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.users[userID] {
		c.push(msg)
	}
}
