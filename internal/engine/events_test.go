package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sociochat/engine/internal/types"
)

func Test_newEnvelope(t *testing.T) {
	from := types.User{Id: "u1", Username: "alice"}

	env := newEnvelope(from, "hello")
	assert.NotEmpty(t, env.Id)
	assert.Equal(t, from, env.From)
	assert.Equal(t, "hello", env.Text)
	assert.False(t, env.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, env.CreatedAt.Location(), "expected envelope timestamps in UTC")

	other := newEnvelope(from, "hello")
	assert.NotEqual(t, env.Id, other.Id, "expected envelope ids to be unique")
}

func TestNow(t *testing.T) {
	now := Now()
	assert.Equal(t, now, now.Round(time.Millisecond), "expected timestamps rounded to milliseconds")
}
