package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err, "expected no error loading config from empty environment")
	assert.Equal(t, ":8000", cfg.ServerAddr, "expected default server address")
	assert.Equal(t, 512, cfg.HistoryBuffer, "expected default history buffer size")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHAT_SERVER_ADDR", "localhost:9000")
	t.Setenv("CHAT_ALLOWED_ORIGINS", "https://app.example.com,https://staging.example.com")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.ServerAddr)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
}

func TestFinalize(t *testing.T) {
	t.Run("decodes signing secret", func(t *testing.T) {
		cfg := &Config{
			ServerAddr:    ":8000",
			SigningSecret: "c2VjcmV0LXNpZ25pbmcta2V5",
			HistoryBuffer: 512,
		}

		err := cfg.Finalize()
		assert.NoError(t, err)
		assert.Equal(t, []byte("secret-signing-key"), cfg.SigningKey)
	})

	t.Run("rejects empty signing secret", func(t *testing.T) {
		cfg := &Config{ServerAddr: ":8000", HistoryBuffer: 512}
		assert.Error(t, cfg.Finalize(), "expected error for missing signing secret")
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		cfg := &Config{ServerAddr: ":8000", SigningSecret: "not-base64!!!", HistoryBuffer: 512}
		assert.Error(t, cfg.Finalize(), "expected error for undecodable signing secret")
	})

	t.Run("rejects empty server address", func(t *testing.T) {
		cfg := &Config{SigningSecret: "c2VjcmV0", HistoryBuffer: 512}
		assert.Error(t, cfg.Finalize(), "expected error for empty server address")
	})
}
