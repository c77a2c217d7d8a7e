// Package integration holds live tests against the real Twitter and
// Postmark APIs. Settings come from the environment or a .env file; tests
// whose settings are missing are skipped.
package integration

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the live API settings.
type Config struct {
	TwitterAuthority string
	TwitterUsername  string
	TwitterPassword  string

	OAuthAuthority      string
	OAuthConsumerKey    string
	OAuthConsumerSecret string

	PostmarkAuthority   string
	PostmarkServerToken string
	PostmarkFrom        string
	PostmarkTo          string

	RequestTimeout time.Duration
	DebugLogging   bool
}

// LoadConfig loads .env (if present) and reads the settings from the
// environment. Variables already set in the environment win.
func LoadConfig() *Config {
	loadEnvFile()

	return &Config{
		TwitterAuthority:    getWithDefault("TWITTER_AUTHORITY", "https://api.twitter.com"),
		TwitterUsername:     os.Getenv("TWITTER_USERNAME"),
		TwitterPassword:     os.Getenv("TWITTER_PASSWORD"),
		OAuthAuthority:      getWithDefault("OAUTH_AUTHORITY", "https://api.twitter.com/oauth"),
		OAuthConsumerKey:    os.Getenv("OAUTH_CONSUMER_KEY"),
		OAuthConsumerSecret: os.Getenv("OAUTH_CONSUMER_SECRET"),
		PostmarkAuthority:   getWithDefault("POSTMARK_AUTHORITY", "https://api.postmarkapp.com"),
		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		PostmarkFrom:        os.Getenv("POSTMARK_FROM_ADDRESS"),
		PostmarkTo:          os.Getenv("POSTMARK_TO_ADDRESS"),
		RequestTimeout:      getDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		DebugLogging:        getBoolWithDefault("DEBUG_LOGGING", false),
	}
}

// HasTwitter reports whether basic-auth settings are present.
func (c *Config) HasTwitter() bool {
	return c.TwitterUsername != "" && c.TwitterPassword != ""
}

// HasOAuth reports whether consumer credentials are present.
func (c *Config) HasOAuth() bool {
	return c.OAuthConsumerKey != "" && c.OAuthConsumerSecret != ""
}

// HasPostmark reports whether Postmark settings are present.
func (c *Config) HasPostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkFrom != "" && c.PostmarkTo != ""
}

func getWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func loadEnvFile() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			// Load never overrides variables that are already set.
			_ = godotenv.Load(path)
			return
		}
	}
}
