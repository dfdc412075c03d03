package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sociochat/engine/internal/testutil"
	"github.com/sociochat/engine/internal/types"
)

func Test_queueEvent(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerEvent, 1),
			log:  testutil.TestLogger(t),
		}

		res := c.queueEvent(&ServerEvent{Event: EvtRandomQueued})
		assert.True(t, res, "expected queueEvent to return true when channel is not full")

		select {
		case evt := <-c.send:
			assert.NotNil(t, evt, "expected an event to be queued for the client")
		default:
			t.Error("expected an event to be queued for the client, but none was")
		}
	})
	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerEvent, 1),
			log:  testutil.TestLogger(t),
		}

		c.send <- &ServerEvent{} // Pre-fill the send channel to simulate a full channel
		res := c.queueEvent(&ServerEvent{Event: EvtRandomQueued})
		assert.False(t, res, "expected queueEvent to return false when channel is full")
	})
}

func Test_close(t *testing.T) {
	c := &Client{
		user: types.User{Id: "u1"},
		send: make(chan *ServerEvent, 1),
		stop: make(chan struct{}),
		log:  testutil.TestLogger(t),
	}

	c.close()
	select {
	case <-c.stop:
	default:
		t.Error("expected stop channel to be closed")
	}

	// closing twice must not panic
	c.close()
}
