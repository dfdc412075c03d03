package engine

import (
	"log"

	"github.com/sociochat/engine/internal/history"
	"github.com/sociochat/engine/internal/stats"
	"github.com/sociochat/engine/internal/types"
)

// PrivateRelay delivers point-to-point messages between two identities. It is
// stateless: every call resolves the recipient through the registry and
// nothing is retained between calls. Authorization (friendship checks and the
// like) is the caller's concern, not the relay's.
type PrivateRelay struct {
	registry *Registry
	history  history.Recorder
	stats    stats.StatsProvider
	log      *log.Logger
}

func NewPrivateRelay(logger *log.Logger, reg *Registry, hist history.Recorder, su stats.StatsProvider) *PrivateRelay {
	return &PrivateRelay{
		registry: reg,
		history:  hist,
		stats:    su,
		log:      logger,
	}
}

// Send always succeeds at the application level: the envelope is constructed
// and timestamped regardless of the recipient's liveness, and handed to the
// history store, which is the durability mechanism. Live delivery is
// attempted once; an offline recipient is not an error and nothing is queued
// or retried here.
func (pr *PrivateRelay) Send(sender types.User, toUserId, text string) *types.Envelope {
	env := newEnvelope(sender, text)
	env.ToUserId = toUserId

	pr.history.RecordPrivateMessage(env)
	pr.stats.Incr(stats.PrivateMessages)

	if !pr.registry.Deliver(toUserId, &ServerEvent{Event: EvtPrivateMessage, Data: env}) {
		pr.log.Printf("private message %q to offline user %q, live delivery skipped", env.Id, toUserId)
	}

	return env
}
