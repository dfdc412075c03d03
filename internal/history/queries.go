package history

import (
	"github.com/sociochat/engine/internal/types"
)

func (s *PgStore) SaveRoomMessage(env *types.Envelope) error {
	_, err := s.conn.Exec(
		"INSERT INTO room_messages (id, room_id, group_id, sender_id, content, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6)",
		env.Id,
		env.RoomId,
		env.GroupId,
		env.From.Id,
		env.Text,
		env.CreatedAt,
	)

	return err
}

func (s *PgStore) SavePrivateMessage(env *types.Envelope) error {
	_, err := s.conn.Exec(
		"INSERT INTO private_messages (id, sender_id, recipient_id, content, created_at) "+
			"VALUES ($1, $2, $3, $4, $5)",
		env.Id,
		env.From.Id,
		env.ToUserId,
		env.Text,
		env.CreatedAt,
	)

	return err
}
