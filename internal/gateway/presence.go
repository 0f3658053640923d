package gateway

import "sync"

// Registry tracks which connections are currently bound to which users. It
// is process-local and intentionally unaware of persistence; a distributed
// deployment would swap in an implementation backed by a shared store.
type Registry interface {
	// Bind associates a connection with a user. A connection already bound
	// to another user is rebound: last join wins.
	Bind(userID string, client *Client)
	// Unbind removes the connection's binding, reporting the user it was
	// bound to. A never-bound connection is a no-op.
	Unbind(client *Client) (string, bool)
	// ConnectionsFor returns every connection bound to the user.
	ConnectionsFor(userID string) []*Client
	IsOnline(userID string) bool
	OnlineCount() int
}

// memoryRegistry keeps a forward map (user -> connections) and a reverse map
// (connection -> user). Each binding is independent, so a single RWMutex
// over point lookups and single-key writes is all the coordination needed.
type memoryRegistry struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}
	byConn map[*Client]string
}

func NewRegistry() Registry {
	return &memoryRegistry{
		byUser: make(map[string]map[*Client]struct{}),
		byConn: make(map[*Client]string),
	}
}

func (r *memoryRegistry) Bind(userID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[client]; ok {
		if prev == userID {
			return
		}
		r.removeLocked(prev, client)
	}

	conns, ok := r.byUser[userID]
	if !ok {
		conns = make(map[*Client]struct{})
		r.byUser[userID] = conns
	}
	conns[client] = struct{}{}
	r.byConn[client] = userID
}

func (r *memoryRegistry) Unbind(client *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[client]
	if !ok {
		return "", false
	}
	r.removeLocked(userID, client)
	return userID, true
}

func (r *memoryRegistry) removeLocked(userID string, client *Client) {
	delete(r.byConn, client)
	if conns, ok := r.byUser[userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *memoryRegistry) ConnectionsFor(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[userID]
	out := make([]*Client, 0, len(conns))
	for c := range conns {
		out = append(out, c)
	}
	return out
}

func (r *memoryRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

func (r *memoryRegistry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
