package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STRAVA_PAGE_SIZE", "")
	t.Setenv("MFP_BASE_URL", "")
	t.Setenv("DATA_DIR", "")

	cfg := Load()
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, 50, cfg.StravaPageSize)
	require.Empty(t, cfg.MyFitnessPalBaseURL)
	require.Equal(t, "https://www.strava.com/oauth/token", cfg.StravaTokenURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/mindbody")
	t.Setenv("STRAVA_PAGE_SIZE", "10")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("OAUTH_STATE_EXPIRY", "not-a-duration")

	cfg := Load()
	require.Equal(t, "/tmp/mindbody", cfg.DataDir)
	require.Equal(t, 10, cfg.StravaPageSize)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 10*time.Minute, cfg.OAuthStateExpiry)
}

func TestLoadIgnoresNonPositivePageSize(t *testing.T) {
	t.Setenv("STRAVA_PAGE_SIZE", "-3")
	require.Equal(t, 50, Load().StravaPageSize)
}
