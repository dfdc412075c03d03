package types

import (
	"time"
)

// User is the public profile summary attached to a live connection. It is
// resolved once at the auth handshake and reused for every event the engine
// emits on behalf of the user.
type User struct {
	Id        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Envelope is the canonical message record delivered to recipients. RoomId is
// set for room messages, ToUserId for private messages; both are empty for
// random-chat messages.
type Envelope struct {
	Id        string    `json:"id"`
	RoomId    string    `json:"room_id,omitempty"`
	GroupId   string    `json:"group_id,omitempty"`
	ToUserId  string    `json:"to_user_id,omitempty"`
	From      User      `json:"from"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
