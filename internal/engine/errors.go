package engine

import (
	"errors"
	"net/http"
)

var (
	ErrNotMember   = errors.New("sender is not a member of the room")
	ErrUnknownRoom = errors.New("unknown room")
)

type ErrorPayload struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

func errInvalidMessage(id int) *ServerEvent {
	evt := &ServerEvent{
		Event: EvtError,
		Data: &ErrorPayload{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		evt.Id = id
	}
	return evt
}

func errUnknownEvent(id int) *ServerEvent {
	evt := &ServerEvent{
		Event: EvtError,
		Data: &ErrorPayload{
			ResponseCode: http.StatusBadRequest,
			Error:        "unknown event",
		},
	}

	if id > 0 {
		evt.Id = id
	}
	return evt
}

func errRoomNotFound(id int) *ServerEvent {
	evt := &ServerEvent{
		Event: EvtError,
		Data: &ErrorPayload{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}

	if id > 0 {
		evt.Id = id
	}
	return evt
}
