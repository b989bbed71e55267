package tournament

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var startggPrefix = regexp.MustCompile(`^(https?://)?(www\.)?start\.gg/`)

// ParseURL splits a start.gg event URL into the tournament slug and the event slug.
//
//	https://www.start.gg/tournament/evo-2024/event/melee-singles
//	-> "evo-2024", "tournament/evo-2024/event/melee-singles"
func ParseURL(raw string) (tournamentSlug, eventSlug string, err error) {
	path := startggPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("not a start.gg tournament URL: %q", raw)
	}
	return parts[1], path, nil
}

// KebabToCamel converts a slug like "the-big-house-11" to "theBigHouse11".
func KebabToCamel(s string) string {
	var b strings.Builder
	for i, word := range strings.Split(s, "-") {
		if word == "" {
			continue
		}
		runes := []rune(strings.ToLower(word))
		if i > 0 && b.Len() > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

// GenerateID creates a deterministic ID from the event slug.
func GenerateID(eventSlug string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.start.gg/"+eventSlug)).String()
}

// MapsLink builds a map search URL for an address.
func MapsLink(address string) string {
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(address)
}

// CityAndState joins city and region, with "Unknown" for a missing city.
func CityAndState(city, region string) string {
	if strings.TrimSpace(city) == "" {
		city = "Unknown"
	}
	return fmt.Sprintf("%s, %s", city, region)
}

// LoadLocation resolves an IANA timezone name. The empty name is rejected
// rather than silently meaning UTC.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("timezone is empty")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// DateRange formats "May 06 - May 07" in the given timezone.
func DateRange(startAt, endAt int64, loc *time.Location) string {
	const layout = "January 02"
	start := time.Unix(startAt, 0).In(loc).Format(layout)
	end := time.Unix(endAt, 0).In(loc).Format(layout)
	return fmt.Sprintf("%s - %s", start, end)
}
