package engine

import (
	"encoding/json"
	"time"

	"github.com/teris-io/shortid"

	"github.com/sociochat/engine/internal/types"
)

// Inbound event names as they appear on the wire.
const (
	EvtPublicJoin     = "public:join"
	EvtPublicLeave    = "public:leave"
	EvtPublicGetUsers = "public:getUsers"
	EvtPublicMessage  = "public:message"
	EvtPrivateMessage = "private:message"
	EvtRandomStart    = "random:start"
	EvtRandomNext     = "random:next"
	EvtRandomEnd      = "random:end"
	EvtRandomMessage  = "random:message"
)

// Outbound event names.
const (
	EvtPublicUsers      = "public:users"
	EvtPublicUserJoined = "public:userJoined"
	EvtPublicUserLeft   = "public:userLeft"
	EvtRandomQueued     = "random:queued"
	EvtRandomMatched    = "random:matched"
	EvtRandomEnded      = "random:ended"
	EvtError            = "error"
)

// ClientEvent is an inbound wire frame. Data stays raw until the dispatcher
// knows which payload type the event name calls for.
type ClientEvent struct {
	Id    int             `json:"id,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is an outbound wire frame.
type ServerEvent struct {
	Id    int    `json:"id,omitempty"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound payloads. Validation tags are enforced at the dispatcher boundary
// before any component logic runs.
type JoinPayload struct {
	RoomId  string `json:"roomId" validate:"required,max=64"`
	GroupId string `json:"groupId,omitempty" validate:"omitempty,max=64"`
}

type GetUsersPayload struct {
	RoomId  string `json:"roomId" validate:"required,max=64"`
	GroupId string `json:"groupId,omitempty" validate:"omitempty,max=64"`
}

type PublicMessagePayload struct {
	RoomId  string `json:"roomId" validate:"required,max=64"`
	GroupId string `json:"groupId,omitempty" validate:"omitempty,max=64"`
	Text    string `json:"text" validate:"required,max=2048"`
}

type PrivateMessagePayload struct {
	ToUserId string `json:"toUserId" validate:"required,max=64"`
	Text     string `json:"text" validate:"required,max=2048"`
}

type RandomMessagePayload struct {
	Text string `json:"text" validate:"required,max=2048"`
}

// Outbound payloads.
type RoomUsersPayload struct {
	RoomId  string       `json:"roomId"`
	GroupId string       `json:"groupId,omitempty"`
	Users   []types.User `json:"users"`
}

type UserJoinedPayload struct {
	RoomId  string     `json:"roomId"`
	GroupId string     `json:"groupId,omitempty"`
	User    types.User `json:"user"`
}

type UserLeftPayload struct {
	RoomId  string `json:"roomId"`
	GroupId string `json:"groupId,omitempty"`
	UserId  string `json:"userId"`
}

type MatchedPayload struct {
	Partner types.User `json:"partner"`
}

var envelopeIds = shortid.MustNew(1, shortid.DefaultABC, 2342)

func newEnvelope(from types.User, text string) *types.Envelope {
	return &types.Envelope{
		Id:        envelopeIds.MustGenerate(),
		From:      from,
		Text:      text,
		CreatedAt: Now(),
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
