package engine

import (
	"log"
	"sync"

	"github.com/sociochat/engine/internal/stats"
)

// DisconnectListener is notified whenever an identity loses its live
// connection, either by transport close or by supersession. Presence and
// matchmaking register themselves so their bookkeeping never has to poll.
type DisconnectListener interface {
	HandleDisconnect(identity string)
}

// Registry owns the identity -> live connection mapping. One live connection
// per identity: a reconnect supersedes the prior entry, it never duplicates
// it.
type Registry struct {
	mu        sync.Mutex
	conns     map[string]*Client
	listeners []DisconnectListener
	stats     stats.StatsProvider
	log       *log.Logger
}

func NewRegistry(logger *log.Logger, su stats.StatsProvider) *Registry {
	return &Registry{
		conns: make(map[string]*Client),
		stats: su,
		log:   logger,
	}
}

// Subscribe adds a disconnect listener. Not safe to call once connections are
// being accepted; listeners are wired up before the engine starts serving.
func (r *Registry) Subscribe(l DisconnectListener) {
	r.listeners = append(r.listeners, l)
}

// Register inserts the mapping for the client's identity and returns the
// superseded session, if any. Last connection wins: the caller force-closes
// the prior session, and its presence/matchmaking state is torn down here as
// if it had disconnected.
func (r *Registry) Register(c *Client) *Client {
	r.mu.Lock()
	prior := r.conns[c.user.Id]
	r.conns[c.user.Id] = c
	r.mu.Unlock()

	if prior != nil {
		r.log.Printf("superseding connection for user %q", c.user.Id)
		r.notifyDisconnect(c.user.Id)
	} else {
		r.stats.Incr(stats.ActiveConnections)
	}

	return prior
}

// Lookup returns the live connection for identity, or nil.
func (r *Registry) Lookup(identity string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[identity]
}

// Unregister removes the mapping only if the stored session is still the
// given one, guarding against unregistering a session that was already
// superseded. Returns whether the mapping was removed.
func (r *Registry) Unregister(identity string, c *Client) bool {
	r.mu.Lock()
	cur, ok := r.conns[identity]
	if !ok || cur != c {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, identity)
	r.mu.Unlock()

	r.stats.Decr(stats.ActiveConnections)
	r.notifyDisconnect(identity)
	return true
}

// Deliver queues an event on the identity's live connection. Best-effort: a
// missing connection or a full send buffer drops the event.
func (r *Registry) Deliver(identity string, evt *ServerEvent) bool {
	c := r.Lookup(identity)
	if c == nil {
		return false
	}

	return c.queueEvent(evt)
}

// Clients returns a snapshot of all live connections.
func (r *Registry) Clients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		clients = append(clients, c)
	}
	return clients
}

// notifyDisconnect runs outside the registry lock so listeners are free to
// call back into Lookup.
func (r *Registry) notifyDisconnect(identity string) {
	for _, l := range r.listeners {
		l.HandleDisconnect(identity)
	}
}
