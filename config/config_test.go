package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 20*time.Second, cfg.RoundInterval)
	assert.Equal(t, 30*time.Second, cfg.EmptyRoomGrace)
	assert.Equal(t, 16, cfg.MaxPlayers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("ROUND_INTERVAL", "45s")
	t.Setenv("EMPTY_ROOM_GRACE", "2m")
	t.Setenv("MAX_PLAYERS", "32")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 45*time.Second, cfg.RoundInterval)
	assert.Equal(t, 2*time.Minute, cfg.EmptyRoomGrace)
	assert.Equal(t, 32, cfg.MaxPlayers)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("ROUND_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)
}
