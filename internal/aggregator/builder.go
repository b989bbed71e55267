package aggregator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/startgg"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// ImageFetcher caches a banner image under a name and returns its file name.
type ImageFetcher interface {
	Fetch(ctx context.Context, url, name string) (string, error)
}

// Builder turns tournament inputs into records.
type Builder struct {
	Provider startgg.Provider
	Images   ImageFetcher // nil disables banner downloads
	Log      *logger.Logger
}

var queryString = regexp.MustCompile(`\?.*`)

// Build aggregates one tournament. Errors wrapping *DataError or
// *startgg.TransientError concern only this tournament.
func (b *Builder) Build(ctx context.Context, input tournament.Input, ranked []string) (*tournament.Record, error) {
	log := b.Log
	if log == nil {
		log = logger.Default()
	}

	slug, eventSlug, err := tournament.ParseURL(input.URL)
	if err != nil {
		return nil, &DataError{Tournament: input.URL, Field: tournament.InputKeyURL, Err: err}
	}
	overridden := func(key string) bool {
		_, ok := input.Override(key)
		return ok
	}

	info, err := b.Provider.TournamentInfo(ctx, slug, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("tournament %s: %w", slug, err)
	}
	if err := requireFields(slug, info, overridden); err != nil {
		return nil, err
	}

	name := deref(info.Name)
	if v, ok := input.Override(tournament.KeyName); ok {
		name = v
	}
	log.Heading(name)
	log.Success("start.gg", "scraped tournament", logger.Fields{"tournament": slug})

	entrants := b.entrants(ctx, log, slug, info.EventID)

	found, err := b.Provider.FeaturedPlayers(ctx, eventSlug, ranked)
	if err != nil {
		return nil, fmt.Errorf("tournament %s: featured players: %w", slug, err)
	}
	players := MatchRanked(ranked, found)
	log.Success("start.gg", "scraped top 8 players", logger.Fields{"tournament": slug, "matched": len(players)})

	r := &tournament.Record{
		ID:            tournament.GenerateID(eventSlug),
		Slug:          slug,
		EventSlug:     eventSlug,
		DisplayKey:    tournament.KebabToCamel(slug),
		Name:          deref(info.Name),
		Timezone:      deref(info.Timezone),
		Players:       tournament.PadPlayers(players),
		Entrants:      entrants,
		CityAndState:  tournament.CityAndState(deref(info.City), deref(info.AddrState)),
		FullAddress:   deref(info.VenueAddress),
		BracketURL:    input.URL,
		StreamURL:     input.StreamURL,
		ScheduleURL:   input.ScheduleURL,
		Top8StartTime: input.Top8StartTime,
		BannerURL:     LargestImage(info.Images),
	}
	if info.StartAt != nil {
		r.StartAt = *info.StartAt
	}
	if info.EndAt != nil {
		r.EndAt = *info.EndAt
	}
	if input.Timezone != "" {
		r.Timezone = input.Timezone
	}
	if r.FullAddress == "" {
		log.Warning("start.gg", "tournament has no venue address, using city", logger.Fields{"tournament": slug})
		r.FullAddress = r.CityAndState
	}

	r.ImageFile = b.image(ctx, log, r)

	if err := r.ApplyOverrides(input.Overrides); err != nil {
		return nil, &DataError{Tournament: slug, Field: "overrides", Err: err}
	}

	loc, err := r.Location()
	if err != nil {
		return nil, &DataError{Tournament: slug, Field: tournament.KeyTimezone, Err: err}
	}

	if !overridden(tournament.KeyDate) {
		r.Date = tournament.DateRange(r.StartAt, r.EndAt, loc)
	}
	if !overridden(tournament.KeyMapsLink) {
		r.MapsLink = tournament.MapsLink(r.FullAddress)
	}
	if !overridden(tournament.KeyStreamLinkClass) {
		r.StreamLinkClass = tournament.LinkClass(r.StreamURL)
	}
	if !overridden(tournament.KeyScheduleLinkClass) {
		r.ScheduleLinkClass = tournament.LinkClass(r.ScheduleURL)
	}

	return r, nil
}

// requireFields reports the first required provider field that is missing and
// not supplied by the operator.
func requireFields(slug string, info *startgg.TournamentInfo, overridden func(string) bool) error {
	checks := []struct {
		field   string
		key     string
		missing bool
	}{
		{"name", tournament.KeyName, info.Name == nil || *info.Name == ""},
		{"startAt", tournament.KeyStartAt, info.StartAt == nil},
		{"endAt", tournament.KeyEndAt, info.EndAt == nil},
		{"addrState", tournament.KeyCityAndState, info.AddrState == nil},
	}
	for _, c := range checks {
		if c.missing && !overridden(c.key) {
			return &DataError{Tournament: slug, Field: c.field}
		}
	}
	if info.EventID == "" {
		return &DataError{Tournament: slug, Field: "event id"}
	}
	return nil
}

func (b *Builder) entrants(ctx context.Context, log *logger.Logger, slug, eventID string) string {
	count, err := b.Provider.EntrantCount(ctx, eventID)
	if err != nil {
		log.Warning("start.gg", "entrant count unavailable, using TBD", logger.Fields{
			"tournament": slug,
			"error":      err.Error(),
		})
		return tournament.TBD
	}
	if count == nil {
		log.Skip("start.gg", "no entrant count yet", logger.Fields{"tournament": slug})
		return tournament.TBD
	}
	log.Success("start.gg", "scraped entrants", logger.Fields{"tournament": slug, "entrants": *count})
	return strconv.Itoa(*count)
}

func (b *Builder) image(ctx context.Context, log *logger.Logger, r *tournament.Record) string {
	if b.Images == nil {
		return ""
	}
	if r.BannerURL == "" {
		log.Warning("ffmpeg", "tournament has no banner image", logger.Fields{"tournament": r.Slug})
		return ""
	}
	file, err := b.Images.Fetch(ctx, r.BannerURL, r.DisplayKey)
	if err != nil {
		log.Warning("ffmpeg", "banner download failed", logger.Fields{
			"tournament": r.Slug,
			"url":        r.BannerURL,
			"error":      err.Error(),
		})
		return ""
	}
	return file
}

// MatchRanked returns the ranked players found among the entrant names, in
// rank order, at most tournament.PlayerSlots of them. An entrant matches a
// player when its name equals the player or ends with it, so sponsor
// prefixes such as "C9 | Mango" still match "Mango".
func MatchRanked(ranked, entrants []string) []string {
	var matched []string
	for _, player := range ranked {
		if len(matched) == tournament.PlayerSlots {
			break
		}
		if player == "" {
			continue
		}
		for _, name := range entrants {
			if strings.HasSuffix(name, player) {
				matched = append(matched, player)
				break
			}
		}
	}
	return matched
}

// LargestImage picks the widest image and drops its query string.
func LargestImage(images []startgg.Image) string {
	var best *startgg.Image
	for i := range images {
		if best == nil || images[i].Width > best.Width {
			best = &images[i]
		}
	}
	if best == nil {
		return ""
	}
	return queryString.ReplaceAllString(best.URL, "")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
