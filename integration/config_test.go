package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("TWITTER_USERNAME", "hammock")
	t.Setenv("TWITTER_PASSWORD", "s3cret")
	t.Setenv("OAUTH_CONSUMER_KEY", "")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("DEBUG_LOGGING", "not-a-bool")

	config := LoadConfig()

	require.True(t, config.HasTwitter())
	require.False(t, config.HasOAuth())
	require.Equal(t, "https://api.twitter.com", config.TwitterAuthority)
	require.Equal(t, 5*time.Second, config.RequestTimeout)
	require.False(t, config.DebugLogging)
}
