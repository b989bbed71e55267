package tournament

import (
	"fmt"
	"strconv"
	"time"
)

// PlayerSlots is the number of featured players shown per tournament.
const PlayerSlots = 8

// TBD stands in for values that cannot be determined at build time.
const TBD = "TBD"

// HiddenClass is appended to the CSS class of links without a target.
const HiddenClass = " hidden"

// Placeholder names exposed to templates.
const (
	KeyDisplayKey        = "start.gg-tournament-name"
	KeyName              = "name"
	KeyDate              = "date"
	KeyStartAt           = "start-unix-timestamp"
	KeyEndAt             = "end-unix-timestamp"
	KeyTimezone          = "timezone"
	KeyEntrants          = "entrants"
	KeyCityAndState      = "city-and-state"
	KeyMapsLink          = "maps-link"
	KeyFullAddress       = "full-address"
	KeyBracketURL        = "start.gg-url"
	KeyStreamURL         = "stream-url"
	KeyScheduleURL       = "schedule-url"
	KeyScheduleLinkClass = "schedule-link-class"
	KeyStreamLinkClass   = "stream-link-class"
	KeyTop8StartTime     = "top8-start-time"
	KeyImageFile         = "image-file"
)

// PlayerKey returns the placeholder name of the i-th featured player slot.
func PlayerKey(i int) string {
	return fmt.Sprintf("player%d", i)
}

// Record is the aggregated data for one tournament.
type Record struct {
	ID                string
	Slug              string
	EventSlug         string
	DisplayKey        string
	Name              string
	Date              string
	StartAt           int64
	EndAt             int64
	Timezone          string
	Players           [PlayerSlots]string
	Entrants          string
	CityAndState      string
	MapsLink          string
	FullAddress       string
	BracketURL        string
	StreamURL         string
	ScheduleURL       string
	StreamLinkClass   string
	ScheduleLinkClass string
	Top8StartTime     string
	BannerURL         string
	ImageFile         string
}

// Fields returns the flat placeholder view of the record.
func (r *Record) Fields() map[string]any {
	fields := map[string]any{
		KeyDisplayKey:        r.DisplayKey,
		KeyName:              r.Name,
		KeyDate:              r.Date,
		KeyStartAt:           r.StartAt,
		KeyEndAt:             r.EndAt,
		KeyTimezone:          r.Timezone,
		KeyEntrants:          r.Entrants,
		KeyCityAndState:      r.CityAndState,
		KeyMapsLink:          r.MapsLink,
		KeyFullAddress:       r.FullAddress,
		KeyBracketURL:        r.BracketURL,
		KeyStreamURL:         r.StreamURL,
		KeyScheduleURL:       r.ScheduleURL,
		KeyScheduleLinkClass: r.ScheduleLinkClass,
		KeyStreamLinkClass:   r.StreamLinkClass,
		KeyTop8StartTime:     r.Top8StartTime,
		KeyImageFile:         r.ImageFile,
	}
	for i, p := range r.Players {
		fields[PlayerKey(i)] = p
	}
	return fields
}

// FieldNames lists every placeholder a Record provides.
func FieldNames() []string {
	names := make([]string, 0, len(fieldSetters))
	for name := range fieldSetters {
		names = append(names, name)
	}
	return names
}

var fieldSetters = map[string]func(r *Record, v string) error{
	KeyDisplayKey:        func(r *Record, v string) error { r.DisplayKey = v; return nil },
	KeyName:              func(r *Record, v string) error { r.Name = v; return nil },
	KeyDate:              func(r *Record, v string) error { r.Date = v; return nil },
	KeyStartAt:           func(r *Record, v string) error { return parseUnix(&r.StartAt, v) },
	KeyEndAt:             func(r *Record, v string) error { return parseUnix(&r.EndAt, v) },
	KeyTimezone:          func(r *Record, v string) error { r.Timezone = v; return nil },
	KeyEntrants:          func(r *Record, v string) error { r.Entrants = v; return nil },
	KeyCityAndState:      func(r *Record, v string) error { r.CityAndState = v; return nil },
	KeyMapsLink:          func(r *Record, v string) error { r.MapsLink = v; return nil },
	KeyFullAddress:       func(r *Record, v string) error { r.FullAddress = v; return nil },
	KeyBracketURL:        func(r *Record, v string) error { r.BracketURL = v; return nil },
	KeyStreamURL:         func(r *Record, v string) error { r.StreamURL = v; return nil },
	KeyScheduleURL:       func(r *Record, v string) error { r.ScheduleURL = v; return nil },
	KeyScheduleLinkClass: func(r *Record, v string) error { r.ScheduleLinkClass = v; return nil },
	KeyStreamLinkClass:   func(r *Record, v string) error { r.StreamLinkClass = v; return nil },
	KeyTop8StartTime:     func(r *Record, v string) error { r.Top8StartTime = v; return nil },
	KeyImageFile:         func(r *Record, v string) error { r.ImageFile = v; return nil },
}

func init() {
	for i := 0; i < PlayerSlots; i++ {
		slot := i
		fieldSetters[PlayerKey(i)] = func(r *Record, v string) error {
			r.Players[slot] = v
			return nil
		}
	}
}

func parseUnix(dst *int64, v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unix timestamp %q: %w", v, err)
	}
	*dst = n
	return nil
}

// ApplyOverrides replaces record fields with operator-provided values.
// Keys that are not record fields are ignored.
func (r *Record) ApplyOverrides(overrides map[string]string) error {
	for key, value := range overrides {
		set, ok := fieldSetters[key]
		if !ok {
			continue
		}
		if err := set(r, value); err != nil {
			return fmt.Errorf("override %q: %w", key, err)
		}
	}
	return nil
}

// Location loads the record's timezone.
func (r *Record) Location() (*time.Location, error) {
	return LoadLocation(r.Timezone)
}

// StartTime is the tournament start in its own timezone.
func (r *Record) StartTime() (time.Time, error) {
	loc, err := r.Location()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(r.StartAt, 0).In(loc), nil
}

// EndTime is the tournament end in its own timezone.
func (r *Record) EndTime() (time.Time, error) {
	loc, err := r.Location()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(r.EndAt, 0).In(loc), nil
}

// LinkClass returns the CSS class suffix that hides a link without a target.
func LinkClass(url string) string {
	if url == "" {
		return HiddenClass
	}
	return ""
}

// PadPlayers takes up to PlayerSlots names and fills the rest with TBD.
func PadPlayers(names []string) [PlayerSlots]string {
	var slots [PlayerSlots]string
	for i := range slots {
		if i < len(names) {
			slots[i] = names[i]
		} else {
			slots[i] = TBD
		}
	}
	return slots
}
