package mailing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

type fakeService struct {
	broadcasts []Broadcast
	listCalls  int
	creates    []BroadcastInput
	updates    []int64
	err        error
}

func (f *fakeService) ListBroadcasts(ctx context.Context) ([]Broadcast, error) {
	f.listCalls++
	return append([]Broadcast(nil), f.broadcasts...), f.err
}

func (f *fakeService) CreateBroadcast(ctx context.Context, in BroadcastInput) (*Broadcast, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.creates = append(f.creates, in)
	b := Broadcast{ID: int64(100 + len(f.creates)), Subject: in.Subject, Content: in.Content, SendAt: in.SendAt}
	f.broadcasts = append(f.broadcasts, b)
	return &b, nil
}

func (f *fakeService) UpdateBroadcast(ctx context.Context, id int64, in BroadcastInput) (*Broadcast, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updates = append(f.updates, id)
	return &Broadcast{ID: id, Subject: in.Subject, Content: in.Content, SendAt: in.SendAt}, nil
}

func testTemplates() *Templates {
	return &Templates{
		ReminderSubject: "{{name}} is next week",
		Reminder:        "<h1>{{name}}</h1><p>{{city-and-state}}</p>",
		Top8Subject:     "{{name}} top 8 is starting",
		Top8:            "<p>top 8 at {{top8-start-time}}</p>",
		Top8Stream:      `<a href="{{stream-url}}">watch</a>`,
	}
}

func evoRecord() *tournament.Record {
	return &tournament.Record{
		Slug:          "evo-2024",
		Name:          "EVO 2024",
		StartAt:       1715000000, // 2024-05-06T12:53:20Z
		EndAt:         1715100000,
		Timezone:      "America/Los_Angeles",
		CityAndState:  "Las Vegas, NV",
		Top8StartTime: "2024-05-07 14:00",
		Players:       tournament.PadPlayers(nil),
	}
}

func newTestScheduler(svc BroadcastService, now time.Time) *Scheduler {
	s := NewScheduler(svc, testTemplates(), logger.New(logger.LevelDebug, io.Discard))
	s.Now = func() time.Time { return now }
	return s
}

var april = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

func TestScheduleReminder_Idempotent(t *testing.T) {
	svc := &fakeService{}
	s := newTestScheduler(svc, april)

	first, err := s.ScheduleReminder(context.Background(), evoRecord())
	if err != nil {
		t.Fatalf("ScheduleReminder() error = %v", err)
	}
	second, err := s.ScheduleReminder(context.Background(), evoRecord())
	if err != nil {
		t.Fatalf("ScheduleReminder() error = %v", err)
	}

	if first.Action != ActionCreated || second.Action != ActionUpdated {
		t.Errorf("actions = %s, %s", first.Action, second.Action)
	}
	if len(svc.creates) != 1 || len(svc.updates) != 1 || svc.updates[0] != first.Broadcast.ID {
		t.Errorf("creates = %d, updates = %v", len(svc.creates), svc.updates)
	}
	if svc.listCalls != 1 {
		t.Errorf("broadcast list fetched %d times, want 1", svc.listCalls)
	}

	in := svc.creates[0]
	if in.Subject != "EVO 2024 is next week" {
		t.Errorf("Subject = %q", in.Subject)
	}
	if in.SendAt != "2024-04-29T12:53:20Z" {
		t.Errorf("SendAt = %q", in.SendAt)
	}
}

func TestScheduleReminder_UpdatesExistingBroadcast(t *testing.T) {
	svc := &fakeService{broadcasts: []Broadcast{
		{ID: 7, Subject: "Genesis 10 is next week"},
		{ID: 9, Subject: "EVO 2024 is next week"},
	}}
	s := newTestScheduler(svc, april)

	out, err := s.ScheduleReminder(context.Background(), evoRecord())
	if err != nil {
		t.Fatalf("ScheduleReminder() error = %v", err)
	}
	if out.Action != ActionUpdated || out.Broadcast.ID != 9 {
		t.Errorf("outcome = %+v", out)
	}
	if len(svc.creates) != 0 {
		t.Errorf("unexpected create")
	}
}

func TestScheduleReminder_PastSendTime(t *testing.T) {
	svc := &fakeService{}
	s := newTestScheduler(svc, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	_, err := s.ScheduleReminder(context.Background(), evoRecord())
	pErr, ok := AsPastSendTimeError(err)
	if !ok {
		t.Fatalf("expected PastSendTimeError, got %v", err)
	}
	if pErr.Subject != "EVO 2024 is next week" {
		t.Errorf("Subject = %q", pErr.Subject)
	}
	if svc.listCalls != 0 || len(svc.creates) != 0 {
		t.Error("provider should not be called for a past send time")
	}
}

func TestScheduleTop8(t *testing.T) {
	t.Run("parses local time and appends stream", func(t *testing.T) {
		svc := &fakeService{}
		s := newTestScheduler(svc, april)
		r := evoRecord()
		r.StreamURL = "https://twitch.tv/evo"

		out, err := s.ScheduleTop8(context.Background(), r)
		if err != nil {
			t.Fatalf("ScheduleTop8() error = %v", err)
		}
		// 14:00 PDT is 21:00 UTC.
		if out.Broadcast.SendAt != "2024-05-07T21:00:00Z" {
			t.Errorf("SendAt = %q", out.Broadcast.SendAt)
		}
		if !strings.Contains(out.Broadcast.Content, `<a href="https://twitch.tv/evo">watch</a>`) {
			t.Errorf("Content = %q", out.Broadcast.Content)
		}
	})

	t.Run("no stream block without stream", func(t *testing.T) {
		svc := &fakeService{}
		out, err := newTestScheduler(svc, april).ScheduleTop8(context.Background(), evoRecord())
		if err != nil {
			t.Fatalf("ScheduleTop8() error = %v", err)
		}
		if strings.Contains(out.Broadcast.Content, "watch") {
			t.Errorf("Content = %q", out.Broadcast.Content)
		}
	})

	t.Run("missing time is skipped", func(t *testing.T) {
		r := evoRecord()
		r.Top8StartTime = ""
		_, err := newTestScheduler(&fakeService{}, april).ScheduleTop8(context.Background(), r)
		if !errors.Is(err, ErrNoTop8Time) {
			t.Errorf("expected ErrNoTop8Time, got %v", err)
		}
	})

	t.Run("bad time", func(t *testing.T) {
		r := evoRecord()
		r.Top8StartTime = "sunday afternoon"
		if _, err := newTestScheduler(&fakeService{}, april).ScheduleTop8(context.Background(), r); err == nil {
			t.Error("expected error")
		}
	})
}

func TestParseTop8Time_RFC3339(t *testing.T) {
	r := evoRecord()
	r.Top8StartTime = "2024-05-07T14:00:00-07:00"
	got, err := ParseTop8Time(r)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2024, 5, 7, 21, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseTop8Time() = %v", got)
	}
}

func TestSchedule_EscapesBody(t *testing.T) {
	svc := &fakeService{}
	r := evoRecord()
	r.Name = "Smash & Splash"

	out, err := newTestScheduler(svc, april).ScheduleReminder(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if out.Broadcast.Subject != "Smash & Splash is next week" {
		t.Errorf("Subject = %q", out.Broadcast.Subject)
	}
	if !strings.Contains(out.Broadcast.Content, "Smash &amp; Splash") {
		t.Errorf("Content = %q", out.Broadcast.Content)
	}
}

func TestSchedule_ProviderError(t *testing.T) {
	svc := &fakeService{err: errors.New("kit down")}
	if _, err := newTestScheduler(svc, april).ScheduleReminder(context.Background(), evoRecord()); err == nil {
		t.Error("expected error")
	}
}

func TestDryRunService(t *testing.T) {
	var buf bytes.Buffer
	s := newTestScheduler(NewDryRunService(&buf), april)

	first, err := s.ScheduleReminder(context.Background(), evoRecord())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.ScheduleReminder(context.Background(), evoRecord())
	if err != nil {
		t.Fatal(err)
	}
	if first.Action != ActionCreated || second.Action != ActionUpdated || second.Broadcast.ID != first.Broadcast.ID {
		t.Errorf("outcomes = %+v, %+v", first, second)
	}
	if !strings.Contains(buf.String(), "--- Broadcast create #1 ---") || !strings.Contains(buf.String(), "--- Broadcast update #1 ---") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLoadTemplates_RepoTemplates(t *testing.T) {
	tmpl, err := LoadTemplates("../../data/email")
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if tmpl.ReminderSubject != "{{name}} is next week" {
		t.Errorf("ReminderSubject = %q", tmpl.ReminderSubject)
	}
	if !strings.Contains(tmpl.Top8Stream, "{{stream-url}}") {
		t.Errorf("Top8Stream = %q", tmpl.Top8Stream)
	}
}
