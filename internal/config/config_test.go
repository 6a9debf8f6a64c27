package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PEERGRADE_JWT_SECRET", "test-secret")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "PeerGrade API", cfg.AppName)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, 30*time.Minute, cfg.FeedbackDelay)
	require.Equal(t, 6*time.Hour, cfg.ResubmitCooldown)
	require.Equal(t, 2, cfg.MaxFreeResubmits)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PEERGRADE_JWT_SECRET", "test-secret")
	t.Setenv("PEERGRADE_APP_PORT", "9090")
	t.Setenv("PEERGRADE_FEEDBACK_DELAY", "10m")
	t.Setenv("PEERGRADE_RESUBMIT_COOLDOWN", "1h")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 10*time.Minute, cfg.FeedbackDelay)
	require.Equal(t, time.Hour, cfg.ResubmitCooldown)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("PEERGRADE_JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
}
