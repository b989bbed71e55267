package tournament

import (
	"time"
)

// Entry is what a snapshot remembers about a published tournament.
type Entry struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	City      string    `json:"city_and_state"`
	FirstSeen time.Time `json:"first_seen"`
}

// Snapshot is the set of tournaments published by a previous run.
type Snapshot struct {
	Tournaments map[string]*Entry `json:"tournaments"` // keyed by Record.ID
	UpdatedAt   string            `json:"updated_at"`  // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Tournaments: make(map[string]*Entry),
	}
}

// Add records the given tournaments, keeping FirstSeen for known ones.
func (s *Snapshot) Add(records []*Record, now time.Time) {
	for _, r := range records {
		entry := &Entry{
			ID:        r.ID,
			Slug:      r.Slug,
			Name:      r.Name,
			Date:      r.Date,
			City:      r.CityAndState,
			FirstSeen: now.UTC(),
		}
		if prev, ok := s.Tournaments[r.ID]; ok {
			entry.FirstSeen = prev.FirstSeen
		}
		s.Tournaments[r.ID] = entry
	}
	s.UpdatedAt = now.UTC().Format(time.RFC3339)
}

// Change is a field that differs from the previous run.
type Change struct {
	ID         string `json:"id"`
	ChangeType string `json:"change_type"` // "name", "date", "city"
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
}

// DiffResult contains the results of comparing a run against a snapshot
type DiffResult struct {
	New     []*Record
	Changes []*Change
}

// Diff compares the current records against a previous snapshot.
// New records keep their input order.
func Diff(previous *Snapshot, current []*Record) *DiffResult {
	result := &DiffResult{
		New:     make([]*Record, 0),
		Changes: make([]*Change, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, r := range current {
		prev, exists := previous.Tournaments[r.ID]
		if !exists {
			result.New = append(result.New, r)
			continue
		}
		result.Changes = append(result.Changes, detectChanges(prev, r)...)
	}

	return result
}

func detectChanges(prev *Entry, current *Record) []*Change {
	var changes []*Change
	add := func(kind, old, new string) {
		if old != new {
			changes = append(changes, &Change{ID: current.ID, ChangeType: kind, OldValue: old, NewValue: new})
		}
	}
	add("name", prev.Name, current.Name)
	add("date", prev.Date, current.Date)
	add("city", prev.City, current.CityAndState)
	return changes
}
