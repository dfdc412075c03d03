package engine

import (
	"log"
	"sync"

	"github.com/samber/lo"

	"github.com/sociochat/engine/internal/history"
	"github.com/sociochat/engine/internal/stats"
	"github.com/sociochat/engine/internal/types"
)

// RoomKey identifies a room across both namespaces. Public topic rooms carry
// an empty GroupId, group sub-rooms a non-empty one, so a public room can
// never collide with a group room that reuses its name.
type RoomKey struct {
	GroupId string
	Name    string
}

func PublicRoom(name string) RoomKey {
	return RoomKey{Name: name}
}

func GroupRoom(groupId, name string) RoomKey {
	return RoomKey{GroupId: groupId, Name: name}
}

// RoomManager tracks which identities are members of which room. Rooms are
// implicit: one exists while it has at least one member and is forgotten when
// the last member leaves, so one-off custom room names never accumulate.
type RoomManager struct {
	mu       sync.Mutex
	rooms    map[RoomKey]map[string]struct{}
	memberOf map[string]map[RoomKey]struct{}
	registry *Registry
	history  history.Recorder
	stats    stats.StatsProvider
	log      *log.Logger
}

func NewRoomManager(logger *log.Logger, reg *Registry, hist history.Recorder, su stats.StatsProvider) *RoomManager {
	return &RoomManager{
		rooms:    make(map[RoomKey]map[string]struct{}),
		memberOf: make(map[string]map[RoomKey]struct{}),
		registry: reg,
		history:  hist,
		stats:    su,
		log:      logger,
	}
}

// Join adds the user to the room's member set. Idempotent: a repeated join
// does not duplicate membership, but the joiner is always sent the current
// roster. Existing members receive an incremental user-joined event.
func (rm *RoomManager) Join(user types.User, key RoomKey) {
	rm.mu.Lock()
	members, ok := rm.rooms[key]
	if !ok {
		members = make(map[string]struct{})
		rm.rooms[key] = members
		rm.stats.Incr(stats.ActiveRooms)
	}

	_, already := members[user.Id]
	if !already {
		members[user.Id] = struct{}{}
		if rm.memberOf[user.Id] == nil {
			rm.memberOf[user.Id] = make(map[RoomKey]struct{})
		}
		rm.memberOf[user.Id][key] = struct{}{}
	}
	ids := lo.Keys(members)
	rm.mu.Unlock()

	rm.registry.Deliver(user.Id, &ServerEvent{
		Event: EvtPublicUsers,
		Data: &RoomUsersPayload{
			RoomId:  key.Name,
			GroupId: key.GroupId,
			Users:   rm.profiles(ids),
		},
	})

	if already {
		return
	}

	joined := &ServerEvent{
		Event: EvtPublicUserJoined,
		Data: &UserJoinedPayload{
			RoomId:  key.Name,
			GroupId: key.GroupId,
			User:    user,
		},
	}
	for _, id := range ids {
		if id == user.Id {
			continue
		}
		rm.registry.Deliver(id, joined)
	}
}

// Leave removes the identity from the room, discarding the room when its
// member set becomes empty. No-op if not a member.
func (rm *RoomManager) Leave(identity string, key RoomKey) {
	rm.mu.Lock()
	remaining, left := rm.removeLocked(identity, key)
	rm.mu.Unlock()

	if left {
		rm.fanOutLeft(identity, key, remaining)
	}
}

// Roster returns the current member profiles of the room.
func (rm *RoomManager) Roster(key RoomKey) []types.User {
	rm.mu.Lock()
	ids := lo.Keys(rm.rooms[key])
	rm.mu.Unlock()

	return rm.profiles(ids)
}

// Broadcast validates that the sender is a member, then delivers the message
// envelope to every current member including the sender, so all clients
// render from one authoritative stream. Delivery is best-effort, at most
// once; members whose connection has dropped are skipped silently. The
// accepted message is handed to the history store fire-and-forget.
func (rm *RoomManager) Broadcast(sender types.User, key RoomKey, text string) (*types.Envelope, error) {
	rm.mu.Lock()
	members, ok := rm.rooms[key]
	if !ok {
		rm.mu.Unlock()
		return nil, ErrUnknownRoom
	}
	if _, ok := members[sender.Id]; !ok {
		rm.mu.Unlock()
		return nil, ErrNotMember
	}
	ids := lo.Keys(members)
	rm.mu.Unlock()

	env := newEnvelope(sender, text)
	env.RoomId = key.Name
	env.GroupId = key.GroupId

	rm.history.RecordRoomMessage(env)
	rm.stats.Incr(stats.RoomMessages)

	evt := &ServerEvent{Event: EvtPublicMessage, Data: env}
	for _, id := range ids {
		rm.registry.Deliver(id, evt)
	}

	return env, nil
}

// HandleDisconnect removes the identity from every room it was a member of,
// with the same user-left fan-out as an explicit leave.
func (rm *RoomManager) HandleDisconnect(identity string) {
	rm.mu.Lock()
	keys := lo.Keys(rm.memberOf[identity])
	type departure struct {
		key       RoomKey
		remaining []string
	}
	departures := make([]departure, 0, len(keys))
	for _, key := range keys {
		remaining, left := rm.removeLocked(identity, key)
		if left {
			departures = append(departures, departure{key: key, remaining: remaining})
		}
	}
	rm.mu.Unlock()

	for _, d := range departures {
		rm.fanOutLeft(identity, d.key, d.remaining)
	}
}

// removeLocked drops the identity from one room and returns the remaining
// member ids. Caller holds rm.mu.
func (rm *RoomManager) removeLocked(identity string, key RoomKey) ([]string, bool) {
	members, ok := rm.rooms[key]
	if !ok {
		return nil, false
	}
	if _, ok := members[identity]; !ok {
		return nil, false
	}

	delete(members, identity)
	if rooms := rm.memberOf[identity]; rooms != nil {
		delete(rooms, key)
		if len(rooms) == 0 {
			delete(rm.memberOf, identity)
		}
	}

	if len(members) == 0 {
		delete(rm.rooms, key)
		rm.stats.Decr(stats.ActiveRooms)
		return nil, true
	}

	return lo.Keys(members), true
}

func (rm *RoomManager) fanOutLeft(identity string, key RoomKey, remaining []string) {
	left := &ServerEvent{
		Event: EvtPublicUserLeft,
		Data: &UserLeftPayload{
			RoomId:  key.Name,
			GroupId: key.GroupId,
			UserId:  identity,
		},
	}
	for _, id := range remaining {
		rm.registry.Deliver(id, left)
	}
}

// profiles resolves member identities to their live profile summaries.
// Membership implies a live connection, but a member may drop between the
// snapshot and the lookup; those are skipped.
func (rm *RoomManager) profiles(ids []string) []types.User {
	return lo.FilterMap(ids, func(id string, _ int) (types.User, bool) {
		c := rm.registry.Lookup(id)
		if c == nil {
			return types.User{}, false
		}
		return c.user, true
	})
}
