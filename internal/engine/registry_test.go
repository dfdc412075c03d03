package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sociochat/engine/internal/testutil"
	"github.com/sociochat/engine/internal/types"
)

type recordingListener struct {
	identities []string
}

func (l *recordingListener) HandleDisconnect(identity string) {
	l.identities = append(l.identities, identity)
}

func newRegistryClient(id string) *Client {
	return &Client{
		user: types.User{Id: id, Username: id},
		send: make(chan *ServerEvent, 8),
		stop: make(chan struct{}),
	}
}

func TestRegistryRegisterLookupUnregister(t *testing.T) {
	r := NewRegistry(testutil.TestLogger(t), newMockStats())

	c := newRegistryClient("u1")
	prior := r.Register(c)
	assert.Nil(t, prior, "expected no prior session on first register")
	assert.Equal(t, c, r.Lookup("u1"), "expected lookup to return the registered session")

	assert.True(t, r.Unregister("u1", c), "expected unregister to remove the mapping")
	assert.Nil(t, r.Lookup("u1"), "expected lookup to return nil after unregister")
	assert.False(t, r.Unregister("u1", c), "expected second unregister to be a no-op")
}

func TestRegistrySupersession(t *testing.T) {
	r := NewRegistry(testutil.TestLogger(t), newMockStats())

	sessionA := newRegistryClient("u1")
	sessionB := newRegistryClient("u1")

	assert.Nil(t, r.Register(sessionA))
	prior := r.Register(sessionB)
	assert.Equal(t, sessionA, prior, "expected first session to be reported as superseded")
	assert.Equal(t, sessionB, r.Lookup("u1"), "expected lookup to return the superseding session")

	// unregistering the superseded session must not disturb the new one
	assert.False(t, r.Unregister("u1", sessionA), "expected unregister of stale session to fail")
	assert.Equal(t, sessionB, r.Lookup("u1"))
}

func TestRegistryDisconnectFanout(t *testing.T) {
	r := NewRegistry(testutil.TestLogger(t), newMockStats())
	listener := &recordingListener{}
	r.Subscribe(listener)

	c := newRegistryClient("u1")
	r.Register(c)
	assert.Empty(t, listener.identities, "expected no fan-out on first register")

	r.Unregister("u1", c)
	assert.Equal(t, []string{"u1"}, listener.identities, "expected disconnect fan-out on unregister")

	// supersession also fans out, as if the stale session disconnected
	r.Register(newRegistryClient("u2"))
	r.Register(newRegistryClient("u2"))
	assert.Equal(t, []string{"u1", "u2"}, listener.identities, "expected fan-out on supersession")
}

func TestRegistryDeliver(t *testing.T) {
	r := NewRegistry(testutil.TestLogger(t), newMockStats())

	c := newRegistryClient("u1")
	r.Register(c)

	assert.True(t, r.Deliver("u1", &ServerEvent{Event: EvtRandomQueued}), "expected delivery to a live connection")
	assert.False(t, r.Deliver("nobody", &ServerEvent{Event: EvtRandomQueued}), "expected delivery to an offline identity to report failure")

	select {
	case evt := <-c.send:
		assert.Equal(t, EvtRandomQueued, evt.Event)
	default:
		t.Error("expected event to be queued on the client")
	}
}

func TestRegistryClients(t *testing.T) {
	r := NewRegistry(testutil.TestLogger(t), newMockStats())

	r.Register(newRegistryClient("u1"))
	r.Register(newRegistryClient("u2"))

	assert.Len(t, r.Clients(), 2, "expected snapshot of all live connections")
}
