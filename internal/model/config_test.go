package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Cache.RetentionLimit)
	assert.Equal(t, 8000, cfg.Tracking.AnimationMs)
	assert.Equal(t, 5, cfg.Tracking.StaleAfterSec)
	assert.Equal(t, "student", cfg.Profile.Role)
	assert.False(t, cfg.Profile.CanSend())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  api_base_url: https://transport.example.edu
  stream_base_url: https://stream.example.edu
tracking:
  bus_no: TN-07-1234
  animation_ms: 4000
profile:
  role: incharge
  sender_name: Ms. Priya
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://transport.example.edu", cfg.Server.APIBaseURL)
	assert.Equal(t, "https://stream.example.edu", cfg.StreamURL())
	assert.Equal(t, "TN-07-1234", cfg.Tracking.BusNo)
	assert.Equal(t, 4000, cfg.Tracking.AnimationMs)
	assert.True(t, cfg.Profile.CanSend())
	assert.Equal(t, "Ms. Priya", cfg.Profile.SenderName)

	// Unset keys keep their defaults.
	assert.Equal(t, 30, cfg.Cache.RetentionLimit)
	assert.Equal(t, 5, cfg.Tracking.StaleAfterSec)
}

func TestStreamURLFallsBackToAPI(t *testing.T) {
	cfg := &AppConfig{Server: ServerConfig{APIBaseURL: "https://api.example.edu"}}
	assert.Equal(t, "https://api.example.edu", cfg.StreamURL())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	in := defaultAppConfig()
	in.Server.APIBaseURL = "https://transport.example.edu"
	in.Tracking.BusNo = "7"
	require.NoError(t, SaveConfig(path, in))

	out, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, in.Server.APIBaseURL, out.Server.APIBaseURL)
	assert.Equal(t, in.Tracking.BusNo, out.Tracking.BusNo)
	assert.Equal(t, in.Cache.RetentionLimit, out.Cache.RetentionLimit)
}
