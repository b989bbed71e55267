package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the credentials and tunables of a run. It is built once at
// startup and passed to the components that need it.
type Config struct {
	Startgg      StartggConfig
	Kit          KitConfig
	Twitter      TwitterConfig
	ReminderLead time.Duration
	ImageHeight  int
}

// StartggConfig configures the start.gg client.
type StartggConfig struct {
	Token          string
	Endpoint       string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// KitConfig configures email broadcasts. An empty APIKey disables them.
type KitConfig struct {
	APIKey   string
	Endpoint string
}

// Enabled reports whether broadcasts can be scheduled.
func (k KitConfig) Enabled() bool {
	return k.APIKey != ""
}

// TwitterConfig holds OAuth1 credentials for announcements.
type TwitterConfig struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Complete reports whether all four credentials are set.
func (t TwitterConfig) Complete() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessSecret != ""
}

// ConfigError is a configuration problem that aborts the run before any
// network call.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// AsConfigError attempts to unwrap an error into a ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var cErr *ConfigError
	if errors.As(err, &cErr) {
		return cErr, true
	}
	return nil, false
}

// Load reads the given .env files, if present, then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, &ConfigError{Key: file, Reason: err.Error()}
		}
	}

	return Config{
		Startgg: StartggConfig{
			Token:          envOrDefault(envStartggToken, ""),
			Endpoint:       envOrDefault(envStartggEndpoint, defaultStartggEndpoint),
			Timeout:        durationEnvOrDefault(envStartggTimeout, defaultStartggTimeout),
			MaxAttempts:    intEnvOrDefault(envStartggMaxAttempts, defaultStartggMaxAttempts),
			InitialBackoff: durationEnvOrDefault(envStartggBackoff, defaultStartggBackoff),
			MaxBackoff:     durationEnvOrDefault(envStartggMaxBackoff, defaultStartggMaxBackoff),
		},
		Kit: KitConfig{
			APIKey:   envOrDefault(envKitAPIKey, ""),
			Endpoint: envOrDefault(envKitEndpoint, defaultKitEndpoint),
		},
		Twitter: TwitterConfig{
			APIKey:       envOrDefault(envTwitterAPIKey, ""),
			APISecret:    envOrDefault(envTwitterAPISecret, ""),
			AccessToken:  envOrDefault(envTwitterAccessToken, ""),
			AccessSecret: envOrDefault(envTwitterAccessSecret, ""),
		},
		ReminderLead: time.Duration(intEnvOrDefault(envReminderLeadDays, defaultReminderLeadDays)) * 24 * time.Hour,
		ImageHeight:  intEnvOrDefault(envImageHeight, defaultImageHeight),
	}, nil
}

// Validate checks the settings every build needs.
func (c Config) Validate() error {
	if c.Startgg.Token == "" {
		return &ConfigError{Key: envStartggToken, Reason: "start.gg API token is not set"}
	}
	return nil
}

// ValidateAnnounce checks the settings needed to post announcements.
func (c Config) ValidateAnnounce() error {
	if !c.Twitter.Complete() {
		return &ConfigError{
			Key:    envTwitterAPIKey,
			Reason: "TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_SECRET must all be set",
		}
	}
	return nil
}
