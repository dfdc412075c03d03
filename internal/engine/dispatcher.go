package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// dispatch routes one inbound event to the responsible component. Payloads
// are decoded and validated strictly here, so malformed events never reach
// component logic. Protocol misuse (messages to unjoined rooms, random-chat
// messages while unpaired) is dropped silently per the engine's error
// taxonomy; explicit requests with bad payloads get an error response.
func (e *Engine) dispatch(c *Client, evt *ClientEvent) {
	switch evt.Event {
	case EvtPublicJoin:
		var p JoinPayload
		if err := decodePayload(evt, &p); err != nil {
			e.log.Printf("invalid %s payload from %q: %v", evt.Event, c.user.Id, err)
			c.queueEvent(errInvalidMessage(evt.Id))
			return
		}
		e.rooms.Join(c.user, roomKey(p.RoomId, p.GroupId))

	case EvtPublicLeave:
		var p JoinPayload
		if err := decodePayload(evt, &p); err != nil {
			e.log.Printf("invalid %s payload from %q: %v", evt.Event, c.user.Id, err)
			c.queueEvent(errInvalidMessage(evt.Id))
			return
		}
		e.rooms.Leave(c.user.Id, roomKey(p.RoomId, p.GroupId))

	case EvtPublicGetUsers:
		var p GetUsersPayload
		if err := decodePayload(evt, &p); err != nil {
			e.log.Printf("invalid %s payload from %q: %v", evt.Event, c.user.Id, err)
			c.queueEvent(errInvalidMessage(evt.Id))
			return
		}
		key := roomKey(p.RoomId, p.GroupId)
		users := e.rooms.Roster(key)
		if len(users) == 0 {
			// rooms are implicit, an empty roster means no such room
			c.queueEvent(errRoomNotFound(evt.Id))
			return
		}
		c.queueEvent(&ServerEvent{
			Id:    evt.Id,
			Event: EvtPublicUsers,
			Data: &RoomUsersPayload{
				RoomId:  key.Name,
				GroupId: key.GroupId,
				Users:   users,
			},
		})

	case EvtPublicMessage:
		var p PublicMessagePayload
		if err := decodePayload(evt, &p); err != nil {
			e.log.Printf("invalid %s payload from %q: %v", evt.Event, c.user.Id, err)
			c.queueEvent(errInvalidMessage(evt.Id))
			return
		}
		if _, err := e.rooms.Broadcast(c.user, roomKey(p.RoomId, p.GroupId), p.Text); err != nil {
			// protocol misuse, drop without surfacing an error
			e.log.Printf("dropping room message from %q: %v", c.user.Id, err)
		}

	case EvtPrivateMessage:
		var p PrivateMessagePayload
		if err := decodePayload(evt, &p); err != nil {
			e.log.Printf("invalid %s payload from %q: %v", evt.Event, c.user.Id, err)
			c.queueEvent(errInvalidMessage(evt.Id))
			return
		}
		e.relay.Send(c.user, p.ToUserId, p.Text)

	case EvtRandomStart:
		e.match.Start(c.user)

	case EvtRandomNext:
		e.match.Next(c.user.Id)

	case EvtRandomEnd:
		e.match.End(c.user.Id)

	case EvtRandomMessage:
		var p RandomMessagePayload
		if err := decodePayload(evt, &p); err != nil {
			e.log.Printf("invalid %s payload from %q: %v", evt.Event, c.user.Id, err)
			c.queueEvent(errInvalidMessage(evt.Id))
			return
		}
		e.match.Message(c.user.Id, p.Text)

	default:
		e.log.Printf("unknown event %q from user %q", evt.Event, c.user.Id)
		c.queueEvent(errUnknownEvent(evt.Id))
	}
}

func decodePayload(evt *ClientEvent, v any) error {
	if len(evt.Data) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(evt.Data, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	return nil
}

func roomKey(roomId, groupId string) RoomKey {
	if groupId != "" {
		return GroupRoom(groupId, roomId)
	}
	return PublicRoom(roomId)
}
