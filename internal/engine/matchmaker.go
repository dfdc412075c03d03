package engine

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sociochat/engine/internal/stats"
	"github.com/sociochat/engine/internal/types"
)

// MatchState is the per-identity random-chat state. The states are mutually
// exclusive: an identity is never both queued and paired.
type MatchState int

const (
	StateIdle MatchState = iota
	StateQueued
	StatePaired
)

func (s MatchState) String() string {
	switch s {
	case StateQueued:
		return "QUEUED"
	case StatePaired:
		return "PAIRED"
	default:
		return "IDLE"
	}
}

type queueEntry struct {
	user       types.User
	enqueuedAt time.Time
}

// Pairing unites two identities in a random-chat conversation. A pairing only
// exists while both members are connected; it is torn down, never degraded,
// when either side drops.
type Pairing struct {
	Id        string
	A, B      types.User
	CreatedAt time.Time
}

func (p *Pairing) partnerOf(identity string) (types.User, bool) {
	switch identity {
	case p.A.Id:
		return p.B, true
	case p.B.Id:
		return p.A, true
	}
	return types.User{}, false
}

func (p *Pairing) member(identity string) (types.User, bool) {
	switch identity {
	case p.A.Id:
		return p.A, true
	case p.B.Id:
		return p.B, true
	}
	return types.User{}, false
}

// Matchmaker runs the random-chat FIFO pairing queue. All queue and pairing
// mutations happen under one mutex, so the pop-validate-pair sequence is a
// single atomic step and two matching attempts can never claim the same
// entry.
type Matchmaker struct {
	mu       sync.Mutex
	waiting  []*queueEntry
	queued   map[string]*queueEntry
	paired   map[string]*Pairing
	registry *Registry
	stats    stats.StatsProvider
	log      *log.Logger
}

func NewMatchmaker(logger *log.Logger, reg *Registry, su stats.StatsProvider) *Matchmaker {
	return &Matchmaker{
		queued:   make(map[string]*queueEntry),
		paired:   make(map[string]*Pairing),
		registry: reg,
		stats:    su,
		log:      logger,
	}
}

// State reports the identity's current random-chat state.
func (m *Matchmaker) State(identity string) MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.queued[identity]; ok {
		return StateQueued
	}
	if _, ok := m.paired[identity]; ok {
		return StatePaired
	}
	return StateIdle
}

// Start appends the user to the tail of the waiting list and runs a matching
// step. Idempotent: a user who is already queued or paired is left alone, the
// request is a no-op.
func (m *Matchmaker) Start(user types.User) {
	m.mu.Lock()
	if _, ok := m.queued[user.Id]; ok {
		m.mu.Unlock()
		return
	}
	if _, ok := m.paired[user.Id]; ok {
		m.mu.Unlock()
		return
	}

	m.enqueueLocked(user)
	pairing := m.matchLocked()
	m.mu.Unlock()

	m.registry.Deliver(user.Id, &ServerEvent{Event: EvtRandomQueued})
	m.notifyMatched(pairing)
}

// Message relays text between the two members of the sender's pairing.
// A sender who is not currently paired is silently dropped.
func (m *Matchmaker) Message(senderId, text string) {
	m.mu.Lock()
	pairing, ok := m.paired[senderId]
	if !ok {
		m.mu.Unlock()
		m.log.Printf("dropping random message from unpaired user %q", senderId)
		return
	}
	partner, _ := pairing.partnerOf(senderId)
	sender, _ := pairing.member(senderId)
	m.mu.Unlock()

	m.stats.Incr(stats.RandomMessages)
	m.registry.Deliver(partner.Id, &ServerEvent{
		Event: EvtRandomMessage,
		Data:  newEnvelope(sender, text),
	})
}

// Next ends the requester's current conversation. Both sides are notified the
// conversation ended; only the requester is re-enqueued. The partner returns
// to idle and must start again to re-enter matching.
func (m *Matchmaker) Next(identity string) {
	m.mu.Lock()
	pairing, ok := m.paired[identity]
	if !ok {
		m.mu.Unlock()
		return
	}

	requester, _ := pairing.member(identity)
	partner, _ := pairing.partnerOf(identity)
	m.teardownLocked(pairing)

	m.enqueueLocked(requester)
	next := m.matchLocked()
	m.mu.Unlock()

	ended := &ServerEvent{Event: EvtRandomEnded}
	m.registry.Deliver(partner.Id, ended)
	m.registry.Deliver(identity, ended)
	m.registry.Deliver(identity, &ServerEvent{Event: EvtRandomQueued})
	m.notifyMatched(next)
}

// End stops random chat for the identity without severing the transport:
// a queued entry is withdrawn, a pairing is torn down with the same
// notifications as a disconnect, except the requester is still live and gets
// the ended notice too.
func (m *Matchmaker) End(identity string) {
	m.mu.Lock()
	if _, ok := m.queued[identity]; ok {
		m.dequeueLocked(identity)
		m.mu.Unlock()
		m.registry.Deliver(identity, &ServerEvent{Event: EvtRandomEnded})
		return
	}

	pairing, ok := m.paired[identity]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.teardownLocked(pairing)
	partner, _ := pairing.partnerOf(identity)
	m.mu.Unlock()

	ended := &ServerEvent{Event: EvtRandomEnded}
	m.registry.Deliver(identity, ended)
	m.registry.Deliver(partner.Id, ended)
}

// HandleDisconnect withdraws the identity from the queue, or tears down its
// pairing and notifies the remaining partner, who returns to idle.
func (m *Matchmaker) HandleDisconnect(identity string) {
	m.mu.Lock()
	if _, ok := m.queued[identity]; ok {
		m.dequeueLocked(identity)
		m.mu.Unlock()
		return
	}

	pairing, ok := m.paired[identity]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.teardownLocked(pairing)
	partner, _ := pairing.partnerOf(identity)
	m.mu.Unlock()

	m.registry.Deliver(partner.Id, &ServerEvent{Event: EvtRandomEnded})
}

// enqueueLocked appends a fresh entry at the tail. Caller holds m.mu and has
// verified the identity is neither queued nor paired.
func (m *Matchmaker) enqueueLocked(user types.User) {
	entry := &queueEntry{user: user, enqueuedAt: Now()}
	m.waiting = append(m.waiting, entry)
	m.queued[user.Id] = entry
	m.stats.Incr(stats.QueuedUsers)
}

// dequeueLocked removes the identity's entry from the waiting list.
func (m *Matchmaker) dequeueLocked(identity string) {
	for i, e := range m.waiting {
		if e.user.Id == identity {
			m.waiting = append(m.waiting[:i], m.waiting[i+1:]...)
			break
		}
	}
	delete(m.queued, identity)
	m.stats.Decr(stats.QueuedUsers)
}

// teardownLocked destroys the pairing for both members.
func (m *Matchmaker) teardownLocked(p *Pairing) {
	delete(m.paired, p.A.Id)
	delete(m.paired, p.B.Id)
	m.stats.Decr(stats.ActivePairings)
}

// matchLocked pairs the two oldest live entries, if any. Entries whose
// connection is gone are discarded so a stale entry never blocks fresher
// ones. Caller holds m.mu; at most one pairing can form per call because
// entries are only ever added one at a time.
func (m *Matchmaker) matchLocked() *Pairing {
	for {
		// discard stale entries at the head
		for len(m.waiting) > 0 && m.registry.Lookup(m.waiting[0].user.Id) == nil {
			m.dequeueLocked(m.waiting[0].user.Id)
		}
		if len(m.waiting) < 2 {
			return nil
		}
		if m.registry.Lookup(m.waiting[1].user.Id) == nil {
			m.dequeueLocked(m.waiting[1].user.Id)
			continue
		}

		a, b := m.waiting[0], m.waiting[1]
		m.dequeueLocked(a.user.Id)
		m.dequeueLocked(b.user.Id)

		pairing := &Pairing{
			Id:        uuid.NewString(),
			A:         a.user,
			B:         b.user,
			CreatedAt: Now(),
		}
		m.paired[a.user.Id] = pairing
		m.paired[b.user.Id] = pairing
		m.stats.Incr(stats.ActivePairings)
		m.log.Printf("paired %q with %q (pairing %s)", a.user.Id, b.user.Id, pairing.Id)
		return pairing
	}
}

func (m *Matchmaker) notifyMatched(p *Pairing) {
	if p == nil {
		return
	}

	m.registry.Deliver(p.A.Id, &ServerEvent{Event: EvtRandomMatched, Data: &MatchedPayload{Partner: p.B}})
	m.registry.Deliver(p.B.Id, &ServerEvent{Event: EvtRandomMatched, Data: &MatchedPayload{Partner: p.A}})
}
