package notifier

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/meleemajors/meleemajors/internal/config"
	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// MaxTweetLength is the tweet character limit.
const MaxTweetLength = 280

// TwitterNotifier posts tournaments to Twitter
type TwitterNotifier struct {
	client *twitter.Client
	// Delay is the pause between consecutive tweets.
	Delay time.Duration
}

// NewTwitterNotifier creates a notifier authenticated with the given credentials.
func NewTwitterNotifier(creds config.TwitterConfig) (*TwitterNotifier, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	oauthConfig := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	return NewTwitterNotifierWithClient(oauthConfig.Client(oauth1.NoContext, token)), nil
}

// NewTwitterNotifierWithClient creates a notifier on an already authenticated HTTP client.
func NewTwitterNotifierWithClient(httpClient *http.Client) *TwitterNotifier {
	return &TwitterNotifier{client: twitter.NewClient(httpClient), Delay: 2 * time.Second}
}

// Notify posts one tweet per tournament
func (n *TwitterNotifier) Notify(records []*tournament.Record) error {
	for i, r := range records {
		tweet := FormatTweet(r)

		_, _, err := n.client.Statuses.Update(tweet, nil)
		if err != nil {
			return &NotifyError{Sent: i, Slug: r.Slug, Err: err}
		}
		logger.Success("twitter", "announced tournament", logger.Fields{"tournament": r.Slug})

		// Rate limiting: wait between tweets
		if i < len(records)-1 && n.Delay > 0 {
			time.Sleep(n.Delay)
		}
	}

	return nil
}

// FormatTweet formats a tournament announcement, truncated to MaxTweetLength characters.
func FormatTweet(r *tournament.Record) string {
	var b strings.Builder
	b.WriteString("🎮 New Melee major listed!\n\n")
	b.WriteString(r.Name + "\n")

	if r.Date != "" {
		fmt.Fprintf(&b, "📅 %s\n", r.Date)
	}
	if r.CityAndState != "" {
		fmt.Fprintf(&b, "📍 %s\n", r.CityAndState)
	}
	if featured := featuredPlayers(r); featured != "" {
		fmt.Fprintf(&b, "⭐ %s\n", featured)
	}
	if r.BracketURL != "" {
		fmt.Fprintf(&b, "\n🔗 %s\n", r.BracketURL)
	}
	b.WriteString("\n#SSBM #Melee")

	tweet := b.String()
	if utf8.RuneCountInString(tweet) > MaxTweetLength {
		runes := []rune(tweet)
		tweet = string(runes[:MaxTweetLength-3]) + "..."
	}
	return tweet
}

// featuredPlayers lists the first few known featured players.
func featuredPlayers(r *tournament.Record) string {
	var names []string
	for _, p := range r.Players {
		if p == tournament.TBD || p == "" {
			continue
		}
		names = append(names, p)
		if len(names) == 4 {
			break
		}
	}
	return strings.Join(names, ", ")
}
