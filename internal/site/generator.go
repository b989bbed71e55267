package site

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/meleemajors/meleemajors/internal/aggregator"
	"github.com/meleemajors/meleemajors/internal/calendar"
	"github.com/meleemajors/meleemajors/internal/images"
	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/mailing"
	"github.com/meleemajors/meleemajors/internal/notifier"
	"github.com/meleemajors/meleemajors/internal/render"
	"github.com/meleemajors/meleemajors/internal/startgg"
	"github.com/meleemajors/meleemajors/internal/storage"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// ErrNothingBuilt is returned when no tournament could be built. Nothing is
// written in that case so the published site stays intact.
var ErrNothingBuilt = errors.New("no tournament could be built, site left unchanged")

// Output file names inside the site directory.
const (
	IndexFile    = "index.html"
	CalendarFile = "calendar.ics"
	CardsDir     = "assets/cards"
)

// RecordBuilder aggregates one tournament.
type RecordBuilder interface {
	Build(ctx context.Context, input tournament.Input, ranked []string) (*tournament.Record, error)
}

// EmailScheduler schedules the broadcasts of one tournament.
type EmailScheduler interface {
	ScheduleReminder(ctx context.Context, r *tournament.Record) (*mailing.Outcome, error)
	ScheduleTop8(ctx context.Context, r *tournament.Record) (*mailing.Outcome, error)
}

// ImagePublisher copies card images into the site and prunes the cache.
type ImagePublisher interface {
	Publish(dst string, keep map[string]bool) error
	Prune(keep map[string]bool) ([]string, error)
}

// SnapshotStore persists the tournaments that were already announced.
type SnapshotStore interface {
	LoadSnapshot() (*tournament.Snapshot, error)
	SaveSnapshot(snapshot *tournament.Snapshot) error
}

// Generator builds the site from a tournament list.
type Generator struct {
	Builder   RecordBuilder
	Page      *render.Page
	Scheduler EmailScheduler // nil skips email
	Images    ImagePublisher // nil skips image publishing
	Announcer notifier.Notifier
	Snapshots SnapshotStore // required when Announcer is set
	Metrics   *Metrics
	Log       *logger.Logger
	Now       func() time.Time

	SiteDir string
	// Bail stops after the first tournament without writing anything.
	Bail bool
	// Strict aborts the run on the first failed tournament.
	Strict bool
}

// Failure is a tournament that was skipped.
type Failure struct {
	URL string
	Err error
}

// Result summarizes a run.
type Result struct {
	Records    []*tournament.Record
	Failed     []Failure
	Broadcasts []*mailing.Outcome
	Announced  []*tournament.Record
	Pruned     []string
	Bailed     bool
}

// Run processes inputs in order and writes the site.
func (g *Generator) Run(ctx context.Context, inputs []tournament.Input, ranked []string) (*Result, error) {
	log := g.logger()
	started := g.now()
	result := &Result{}
	cal := calendar.New(started)
	var cards []string

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, card, err := g.process(ctx, log, cal, input, ranked, result)
		if err != nil {
			if !Recoverable(err) {
				return nil, err
			}
			log.Failure("build", "skipping tournament", logger.Fields{"url": input.URL}, err)
			result.Failed = append(result.Failed, Failure{URL: input.URL, Err: err})
			g.Metrics.tournament("failed")
			if g.Strict {
				return nil, fmt.Errorf("strict mode: %s: %w", input.URL, err)
			}
			continue
		}
		result.Records = append(result.Records, r)
		cards = append(cards, card)
		g.Metrics.tournament("built")

		if g.Bail {
			log.Skip("build", "bailing after first tournament, nothing written", nil)
			result.Bailed = true
			return result, nil
		}
	}

	logger.SetGauge("site.tournaments.built", float64(len(result.Records)))
	logger.SetGauge("site.tournaments.failed", float64(len(result.Failed)))

	if len(inputs) > 0 && len(result.Records) == 0 {
		log.Failure("build", "every tournament failed, site left unchanged", logger.Fields{"failed": len(result.Failed)}, ErrNothingBuilt)
		return result, ErrNothingBuilt
	}

	if err := g.write(log, cal, result, cards, cacheKeep(inputs, result)); err != nil {
		return nil, err
	}

	if g.Announcer != nil {
		if err := g.announce(log, result); err != nil {
			return result, err
		}
	}

	elapsed := g.now().Sub(started)
	logger.RecordTiming("site.run", elapsed)
	g.Metrics.finish(result, elapsed, g.now())
	return result, nil
}

// process runs every per-tournament step and returns the record with its
// rendered card.
func (g *Generator) process(ctx context.Context, log *logger.Logger, cal *calendar.Calendar, input tournament.Input, ranked []string, result *Result) (*tournament.Record, string, error) {
	r, err := g.Builder.Build(ctx, input, ranked)
	if err != nil {
		return nil, "", err
	}

	card, err := g.Page.Card(r)
	if err != nil {
		return nil, "", fmt.Errorf("card %s: %w", r.Slug, err)
	}
	log.Success("html", "rendered card", logger.Fields{"tournament": r.Slug})

	if err := cal.Add(r); err != nil {
		return nil, "", &aggregator.DataError{Tournament: r.Slug, Field: "calendar", Err: err}
	}
	log.Success("calendar", "added event", logger.Fields{"tournament": r.Slug})

	if g.Scheduler != nil {
		result.Broadcasts = append(result.Broadcasts, g.email(ctx, log, r)...)
	}
	return r, card, nil
}

// email schedules both broadcasts. Failures are logged and do not affect the
// tournament.
func (g *Generator) email(ctx context.Context, log *logger.Logger, r *tournament.Record) []*mailing.Outcome {
	var outcomes []*mailing.Outcome
	for _, step := range []struct {
		kind string
		run  func(context.Context, *tournament.Record) (*mailing.Outcome, error)
	}{
		{"reminder", g.Scheduler.ScheduleReminder},
		{"top8", g.Scheduler.ScheduleTop8},
	} {
		fields := logger.Fields{"tournament": r.Slug, "kind": step.kind}
		out, err := step.run(ctx, r)
		switch {
		case errors.Is(err, mailing.ErrNoTop8Time):
			log.Skip("email", "no top 8 start time", fields)
		case err != nil:
			if _, ok := mailing.AsPastSendTimeError(err); ok {
				log.Skip("email", "send time already passed", fields)
			} else {
				log.Failure("email", "scheduling failed", fields, err)
				g.Metrics.broadcast(step.kind, "failed")
			}
		default:
			outcomes = append(outcomes, out)
			g.Metrics.broadcast(step.kind, string(out.Action))
		}
	}
	return outcomes
}

func (g *Generator) write(log *logger.Logger, cal *calendar.Calendar, result *Result, cards []string, cached map[string]bool) error {
	var first *tournament.Record
	if len(result.Records) > 0 {
		first = result.Records[0]
	}
	doc, err := g.Page.Assemble(first, cards)
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	index := filepath.Join(g.SiteDir, IndexFile)
	if err := storage.WriteFileAtomic(index, []byte(doc)); err != nil {
		return err
	}
	log.Success("html", "wrote page", logger.Fields{"path": index, "tournaments": len(result.Records)})

	ics := filepath.Join(g.SiteDir, CalendarFile)
	if err := storage.WriteFileAtomic(ics, []byte(cal.Serialize())); err != nil {
		return err
	}
	log.Success("calendar", "wrote calendar", logger.Fields{"path": ics, "events": cal.Len()})

	if g.Images == nil {
		return nil
	}
	keep := make(map[string]bool, len(result.Records))
	for _, r := range result.Records {
		if r.ImageFile != "" {
			keep[r.ImageFile] = true
		}
	}
	if err := g.Images.Publish(filepath.Join(g.SiteDir, CardsDir), keep); err != nil {
		return fmt.Errorf("publishing images: %w", err)
	}
	pruned, err := g.Images.Prune(cached)
	if err != nil {
		return fmt.Errorf("pruning images: %w", err)
	}
	for _, name := range pruned {
		log.Success("ffmpeg", "removed unused image", logger.Fields{"file": name})
	}
	result.Pruned = pruned
	return nil
}

// announce posts tournaments not seen by a previous run. The snapshot is only
// saved once the announcements went out.
func (g *Generator) announce(log *logger.Logger, result *Result) error {
	if g.Snapshots == nil {
		return fmt.Errorf("announcements need a snapshot store")
	}
	previous, err := g.Snapshots.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	diff := tournament.Diff(previous, result.Records)
	for _, c := range diff.Changes {
		log.Info("tournament changed since last run", logger.Fields{
			"id":     c.ID,
			"change": c.ChangeType,
			"old":    c.OldValue,
			"new":    c.NewValue,
		})
	}

	if len(diff.New) == 0 {
		log.Skip("twitter", "no new tournaments to announce", nil)
	} else {
		if err := g.Announcer.Notify(diff.New); err != nil {
			return g.announceFailed(log, previous, diff.New, result, err)
		}
		result.Announced = diff.New
	}

	previous.Add(result.Records, g.now())
	if err := g.Snapshots.SaveSnapshot(previous); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// announceFailed remembers the tournaments that were posted before the
// notifier failed, so the next run does not post them again.
func (g *Generator) announceFailed(log *logger.Logger, previous *tournament.Snapshot, pending []*tournament.Record, result *Result, err error) error {
	sent := 0
	if nErr, ok := notifier.AsNotifyError(err); ok {
		sent = min(nErr.Sent, len(pending))
	}
	log.Failure("twitter", "announcement failed", logger.Fields{"sent": sent, "pending": len(pending)}, err)

	if sent > 0 {
		result.Announced = pending[:sent]
		previous.Add(result.Announced, g.now())
		if saveErr := g.Snapshots.SaveSnapshot(previous); saveErr != nil {
			return fmt.Errorf("announcing tournaments: %w (saving snapshot: %v)", err, saveErr)
		}
	}
	return fmt.Errorf("announcing tournaments: %w", err)
}

// cacheKeep names the cached images to keep: those of built tournaments and
// the expected image of every tournament that failed this run.
func cacheKeep(inputs []tournament.Input, result *Result) map[string]bool {
	keep := make(map[string]bool, len(inputs))
	for _, r := range result.Records {
		if r.ImageFile != "" {
			keep[r.ImageFile] = true
		}
	}
	for _, input := range inputs {
		if name, ok := imageName(input); ok {
			keep[name] = true
		}
	}
	return keep
}

// imageName is the cache file name the builder uses for input.
func imageName(input tournament.Input) (string, bool) {
	slug, _, err := tournament.ParseURL(input.URL)
	if err != nil {
		return "", false
	}
	return tournament.KebabToCamel(slug) + images.Ext, true
}

// Recoverable reports whether err only concerns the tournament it came from.
func Recoverable(err error) bool {
	if _, ok := aggregator.AsDataError(err); ok {
		return true
	}
	if _, ok := startgg.AsTransientError(err); ok {
		return true
	}
	return errors.Is(err, startgg.ErrNotFound)
}

func (g *Generator) logger() *logger.Logger {
	if g.Log != nil {
		return g.Log
	}
	return logger.Default()
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
