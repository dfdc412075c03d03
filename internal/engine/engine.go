// Package engine is the real-time core of the chat application: it keeps
// per-connection presence, relays room and private messages between live
// connections, and operates the random-chat matchmaking queue. Everything
// else (profiles, friends, groups, history retrieval) lives behind external
// collaborators.
package engine

import (
	"log"

	"github.com/sociochat/engine/internal/history"
	"github.com/sociochat/engine/internal/stats"
)

// Engine wires the connection registry, room manager, private relay and
// matchmaker together and dispatches inbound transport events to them.
type Engine struct {
	log      *log.Logger
	registry *Registry
	rooms    *RoomManager
	relay    *PrivateRelay
	match    *Matchmaker
	stats    stats.StatsProvider
}

func NewEngine(logger *log.Logger, hist history.Recorder, su stats.StatsProvider) *Engine {
	for _, name := range []string{
		stats.ActiveConnections,
		stats.ActiveRooms,
		stats.QueuedUsers,
		stats.ActivePairings,
		stats.RoomMessages,
		stats.PrivateMessages,
		stats.RandomMessages,
	} {
		su.RegisterMetric(name)
	}

	registry := NewRegistry(logger, su)
	e := &Engine{
		log:      logger,
		registry: registry,
		rooms:    NewRoomManager(logger, registry, hist, su),
		relay:    NewPrivateRelay(logger, registry, hist, su),
		match:    NewMatchmaker(logger, registry, su),
		stats:    su,
	}

	// presence and matchmaking keep their invariants via disconnect
	// notifications, never by polling
	registry.Subscribe(e.rooms)
	registry.Subscribe(e.match)

	return e
}

// Register installs the client as the live connection for its identity. A
// prior connection for the same identity is superseded: its room and
// matchmaking state is torn down as a disconnect and the stale transport is
// force-closed.
func (e *Engine) Register(c *Client) {
	e.log.Printf("adding connection for user %q", c.user.Id)
	if prior := e.registry.Register(c); prior != nil {
		prior.close()
	}
}

// Unregister removes the client if it is still the live connection for its
// identity; the registry fans out the disconnect to presence and matchmaking.
func (e *Engine) Unregister(c *Client) {
	if e.registry.Unregister(c.user.Id, c) {
		e.log.Printf("removed connection for user %q", c.user.Id)
	}
}

// Shutdown force-closes every live connection. Each client's read pump then
// unregisters it, tearing down presence and matchmaking state.
func (e *Engine) Shutdown() {
	e.log.Println("closing all live connections")
	for _, c := range e.registry.Clients() {
		c.close()
	}
}
