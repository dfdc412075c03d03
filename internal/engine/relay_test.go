package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sociochat/engine/internal/history"
	"github.com/sociochat/engine/internal/testutil"
	"github.com/sociochat/engine/internal/types"
)

func TestRelaySendDeliversToRecipient(t *testing.T) {
	e := newTestEngine(t)

	a := newTestClient(e, "u1", "alice")
	b := newTestClient(e, "u2", "bob")

	env := e.relay.Send(a.user, b.user.Id, "hi")
	assert.Equal(t, "u2", env.ToUserId)

	events := drainEvents(b)
	assert.Equal(t, []string{EvtPrivateMessage}, eventNames(events))
	got := events[0].Data.(*types.Envelope)
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, "u1", got.From.Id)

	assert.Empty(t, drainEvents(a), "expected no echo to the sender")
}

func TestRelaySendEnvelopeShape(t *testing.T) {
	e := newTestEngine(t)

	a := newTestClient(e, "u1", "alice")

	// recipient is offline; the envelope is still constructed and
	// timestamped, and no error surfaces
	env := e.relay.Send(a.user, "u2", "hi")
	assert.NotEmpty(t, env.Id, "expected a non-empty envelope id")
	assert.False(t, env.CreatedAt.IsZero(), "expected a non-empty timestamp")
	assert.Equal(t, "u1", env.From.Id)
	assert.Equal(t, "u2", env.ToUserId)
}

func TestRelaySendRecordsHistory(t *testing.T) {
	su := newMockStats()
	hist := &history.MockRecorder{}
	defer hist.AssertExpectations(t)
	hist.On("RecordPrivateMessage", mock.MatchedBy(func(env *types.Envelope) bool {
		return env.ToUserId == "u2" && env.From.Id == "u1" && env.Text == "hi"
	})).Return().Once()

	e := NewEngine(testutil.TestLogger(t), hist, su)
	a := newTestClient(e, "u1", "alice")

	// the history store is the durability mechanism, so the record is
	// written even though the recipient is offline
	e.relay.Send(a.user, "u2", "hi")
}
