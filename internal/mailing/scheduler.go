package mailing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/placeholder"
	"github.com/meleemajors/meleemajors/internal/render"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// DefaultReminderLead is how long before a tournament the reminder goes out.
const DefaultReminderLead = 7 * 24 * time.Hour

// Top8Layout is the local time format of top-8-start-time. RFC 3339 is also accepted.
const Top8Layout = "2006-01-02 15:04"

// Action is what scheduling did to the provider's broadcast list.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Outcome describes one scheduled broadcast.
type Outcome struct {
	Action    Action
	Broadcast Broadcast
}

// Scheduler creates or updates the broadcasts of each tournament. The
// provider's broadcast list is fetched on first use and kept for the run.
type Scheduler struct {
	Service      BroadcastService
	Templates    *Templates
	ReminderLead time.Duration
	Now          func() time.Time
	Log          *logger.Logger

	cache  []Broadcast
	loaded bool
}

// NewScheduler creates a scheduler with the default lead time and clock.
func NewScheduler(svc BroadcastService, tmpl *Templates, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		Service:      svc,
		Templates:    tmpl,
		ReminderLead: DefaultReminderLead,
		Now:          time.Now,
		Log:          log,
	}
}

// ScheduleReminder schedules the reminder sent ReminderLead before the
// tournament starts.
func (s *Scheduler) ScheduleReminder(ctx context.Context, r *tournament.Record) (*Outcome, error) {
	start, err := r.StartTime()
	if err != nil {
		return nil, err
	}
	sendAt := start.Add(-s.ReminderLead)
	return s.schedule(ctx, "reminder", r, s.Templates.ReminderSubject, s.Templates.Reminder, sendAt)
}

// ScheduleTop8 schedules the broadcast sent when top 8 starts. A tournament
// without a top 8 time returns ErrNoTop8Time.
func (s *Scheduler) ScheduleTop8(ctx context.Context, r *tournament.Record) (*Outcome, error) {
	if strings.TrimSpace(r.Top8StartTime) == "" {
		return nil, ErrNoTop8Time
	}
	sendAt, err := ParseTop8Time(r)
	if err != nil {
		return nil, err
	}

	body := s.Templates.Top8
	if r.StreamURL != "" {
		body += s.Templates.Top8Stream
	}
	return s.schedule(ctx, "top8", r, s.Templates.Top8Subject, body, sendAt)
}

// ParseTop8Time reads the record's top 8 start time in its timezone.
func ParseTop8Time(r *tournament.Record) (time.Time, error) {
	value := strings.TrimSpace(r.Top8StartTime)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	loc, err := r.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(Top8Layout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want %q or RFC 3339", tournament.KeyTop8StartTime, value, Top8Layout)
	}
	return t, nil
}

func (s *Scheduler) schedule(ctx context.Context, kind string, r *tournament.Record, subjectTmpl, bodyTmpl string, sendAt time.Time) (*Outcome, error) {
	subject, err := placeholder.Substitute(r.Fields(), subjectTmpl)
	if err != nil {
		return nil, fmt.Errorf("%s subject: %w", kind, err)
	}
	content, err := placeholder.Substitute(render.EscapedFields(r), bodyTmpl)
	if err != nil {
		return nil, fmt.Errorf("%s body: %w", kind, err)
	}

	if now := s.now(); !sendAt.After(now) {
		return nil, &PastSendTimeError{Subject: subject, SendAt: sendAt, Now: now}
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	in := NewBroadcastInput(subject, content, sendAt)
	if i := s.find(subject); i >= 0 {
		b, err := s.Service.UpdateBroadcast(ctx, s.cache[i].ID, in)
		if err != nil {
			return nil, err
		}
		s.cache[i] = *b
		logger.IncrCounter("email." + kind + ".updated")
		return &Outcome{Action: ActionUpdated, Broadcast: *b}, nil
	}

	b, err := s.Service.CreateBroadcast(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache = append(s.cache, *b)
	logger.IncrCounter("email." + kind + ".created")
	return &Outcome{Action: ActionCreated, Broadcast: *b}, nil
}

func (s *Scheduler) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	broadcasts, err := s.Service.ListBroadcasts(ctx)
	if err != nil {
		return err
	}
	s.cache = broadcasts
	s.loaded = true
	s.Log.Debug("loaded broadcast list", logger.Fields{"count": len(broadcasts)})
	return nil
}

func (s *Scheduler) find(subject string) int {
	for i := range s.cache {
		if s.cache[i].Subject == subject {
			return i
		}
	}
	return -1
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
