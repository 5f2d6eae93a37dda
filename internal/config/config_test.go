package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := LoadEnv()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 10, cfg.Database.MaxConns, "invalid ints fall back")
	assert.Equal(t, "table_changes", cfg.Realtime.Channel)
}

func TestServerConfig_Origins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, ServerConfig{}.Origins())
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Server: ServerConfig{AppEnv: "development"}}).IsDevelopment())
	assert.False(t, (&Config{Server: ServerConfig{AppEnv: "prod"}}).IsDevelopment())
}
