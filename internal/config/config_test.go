package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults_When_File_Missing(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))

	req.NoError(err)
	req.Equal("release", cfg.Mode)
	req.Equal(8080, cfg.Port)
	req.Equal(int64(32768), cfg.ReadLimit)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(60*time.Second, cfg.PongWait())
	req.Equal(5*time.Second, cfg.WriteWait)
	req.Equal(32, cfg.SendBuffer)
	req.Equal(15*time.Minute, cfg.Auth.TokenTTL)
	req.False(cfg.Auth.RequireWSToken)
	req.Equal([]string{"*"}, cfg.CORS.Origins)
	req.False(cfg.Relay.StrictSequencing)
	req.Len(cfg.WebRTC.ICEServers, 1)
	req.Equal([]string{"stun:stun.l.google.com:19302"}, cfg.WebRTC.ICEServers[0].URLs)
}

func TestLoadFrom_File(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, `
mode: debug
port: 9000
ping_period: 30s
auth:
  jwt_secret: s3cret
  require_ws_token: true
relay:
  strict_sequencing: true
cors:
  origins: ["https://clinic.example"]
webrtc:
  ice_servers:
    - urls: ["turn:turn.example:3478"]
      username: u
      credential: p
`)

	cfg, err := LoadFrom(path)

	req.NoError(err)
	req.Equal("debug", cfg.Mode)
	req.Equal(9000, cfg.Port)
	req.Equal(30*time.Second, cfg.PingPeriod)
	req.Equal("s3cret", cfg.Auth.JWTSecret)
	req.True(cfg.Auth.RequireWSToken)
	req.True(cfg.Relay.StrictSequencing)
	req.Equal([]string{"https://clinic.example"}, cfg.CORS.Origins)
	req.Len(cfg.WebRTC.ICEServers, 1)
	req.Equal("u", cfg.WebRTC.ICEServers[0].Username)
}

func TestLoadFrom_Env_Overrides(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, "port: 9000\n")
	t.Setenv("TELEMED_PORT", "9100")
	t.Setenv("TELEMED_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadFrom(path)

	req.NoError(err)
	req.Equal(9100, cfg.Port)
	req.Equal("from-env", cfg.Auth.JWTSecret)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"port", "port: 0\n", ErrInvalidPort},
		{"read limit", "read_limit: -1\n", ErrInvalidReadLimit},
		{"send buffer", "send_buffer: 0\n", ErrInvalidSendBuffer},
		{"ping", "ping_period: 0s\n", ErrInvalidPing},
		{"ws token without secret", "auth:\n  require_ws_token: true\n", ErrMissingJWTSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.body))
			require.ErrorIs(t, err, tt.want)
		})
	}
}
