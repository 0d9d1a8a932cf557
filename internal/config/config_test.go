package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "MAX_PER_SLOT", "MAX_PARTY_SIZE", "SESSION_IDLE_TIMEOUT", "CORS_ORIGINS", "SLOTS_FILE", "COOKIE_HASH_KEY", "COOKIE_BLOCK_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 5, cfg.MaxPerSlot)
	assert.Equal(t, 20, cfg.MaxPartySize)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Nil(t, cfg.CookieHashKey)

	schedule, err := cfg.LoadSchedule()
	require.NoError(t, err)
	assert.Equal(t, []string{"17:00", "18:00", "19:00", "20:00", "21:00"}, schedule.Times())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_PER_SLOT", "3")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("COOKIE_HASH_KEY", "c2VjcmV0")
	t.Setenv("TIMEZONE", "America/New_York")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 3, cfg.MaxPerSlot)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, []byte("secret"), cfg.CookieHashKey)
	assert.Equal(t, "America/New_York", cfg.Location.String())
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"MAX_PER_SLOT", "zero"},
		{"MAX_PARTY_SIZE", "-1"},
		{"SESSION_IDLE_TIMEOUT", "soon"},
		{"TIMEZONE", "Mars/Olympus"},
		{"COOKIE_BLOCK_KEY", "not base64!"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("TIMEZONE", "UTC")
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadScheduleFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_party_size: 8
slots:
  - time: "6pm"
    capacity: 2
  - time: "19:30"
`), 0o600))

	cfg := Config{SlotsFile: path, MaxPerSlot: 4, MaxPartySize: 20}
	schedule, err := cfg.LoadSchedule()
	require.NoError(t, err)
	assert.Equal(t, []string{"18:00", "19:30"}, schedule.Times())
	assert.Equal(t, 8, schedule.MaxPartySize())
	capacity, ok := schedule.Capacity("19:30")
	assert.True(t, ok)
	assert.Equal(t, 4, capacity)
}

func TestLoadScheduleRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slots:\n  - time: \"19:00\"\n  - time: \"7pm\"\n"), 0o600))

	_, err := Config{SlotsFile: path, MaxPerSlot: 4, MaxPartySize: 20}.LoadSchedule()
	assert.Error(t, err)
}
