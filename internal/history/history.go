// Package history is the client side of the history-store collaborator. The
// engine hands every accepted room or private message to a Recorder and moves
// on; persistence failures are logged and never reach the delivery path.
package history

import (
	"log"

	"github.com/sociochat/engine/internal/types"
)

type Recorder interface {
	RecordRoomMessage(env *types.Envelope)
	RecordPrivateMessage(env *types.Envelope)
}

type kind int

const (
	kindRoom kind = iota
	kindPrivate
)

type record struct {
	kind kind
	env  *types.Envelope
}

// store is the synchronous backend behind an AsyncRecorder.
type store interface {
	SaveRoomMessage(env *types.Envelope) error
	SavePrivateMessage(env *types.Envelope) error
	Close() error
}

// AsyncRecorder decouples the delivery path from the backing store with a
// buffered channel and a single writer goroutine. When the buffer is full the
// record is dropped, not queued: live delivery has already happened and the
// store is best-effort by contract.
type AsyncRecorder struct {
	log     *log.Logger
	store   store
	records chan *record
	done    chan struct{}
}

func NewAsyncRecorder(logger *log.Logger, st store, bufferSize int) *AsyncRecorder {
	r := &AsyncRecorder{
		log:     logger,
		store:   st,
		records: make(chan *record, bufferSize),
		done:    make(chan struct{}),
	}

	go r.run()
	return r
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for rec := range r.records {
		var err error
		switch rec.kind {
		case kindRoom:
			err = r.store.SaveRoomMessage(rec.env)
		case kindPrivate:
			err = r.store.SavePrivateMessage(rec.env)
		}
		if err != nil {
			r.log.Printf("history: save message %q: %v", rec.env.Id, err)
		}
	}
}

func (r *AsyncRecorder) RecordRoomMessage(env *types.Envelope) {
	r.enqueue(&record{kind: kindRoom, env: env})
}

func (r *AsyncRecorder) RecordPrivateMessage(env *types.Envelope) {
	r.enqueue(&record{kind: kindPrivate, env: env})
}

func (r *AsyncRecorder) enqueue(rec *record) {
	select {
	case r.records <- rec:
	default:
		r.log.Printf("history: buffer full, dropping record %q", rec.env.Id)
	}
}

// Close drains buffered records and closes the backing store.
func (r *AsyncRecorder) Close() error {
	close(r.records)
	<-r.done
	return r.store.Close()
}

// NopRecorder discards everything. Used when the engine runs without a
// history store.
type NopRecorder struct{}

func (NopRecorder) RecordRoomMessage(env *types.Envelope)    {}
func (NopRecorder) RecordPrivateMessage(env *types.Envelope) {}
