package config

import "time"

const (
	envStartggToken       = "STARTGGAPI"
	envStartggEndpoint    = "STARTGG_ENDPOINT"
	envStartggTimeout     = "STARTGG_TIMEOUT"
	envStartggMaxAttempts = "STARTGG_MAX_ATTEMPTS"
	envStartggBackoff     = "STARTGG_BACKOFF"
	envStartggMaxBackoff  = "STARTGG_MAX_BACKOFF"

	envKitAPIKey   = "KIT_API_KEY"
	envKitEndpoint = "KIT_ENDPOINT"

	envReminderLeadDays = "REMINDER_LEAD_DAYS"
	envImageHeight      = "IMAGE_HEIGHT"

	envTwitterAPIKey       = "TWITTER_API_KEY"
	envTwitterAPISecret    = "TWITTER_API_SECRET"
	envTwitterAccessToken  = "TWITTER_ACCESS_TOKEN"
	envTwitterAccessSecret = "TWITTER_ACCESS_SECRET"
)

const (
	defaultStartggEndpoint    = "https://api.start.gg/gql/alpha"
	defaultStartggTimeout     = 60 * time.Second
	defaultStartggMaxAttempts = 5
	defaultStartggBackoff     = 2 * time.Second
	defaultStartggMaxBackoff  = 30 * time.Second
	defaultKitEndpoint        = "https://api.kit.com/v4/"
	defaultReminderLeadDays   = 7
	defaultImageHeight        = 340
)
