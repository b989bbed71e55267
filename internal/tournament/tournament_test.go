package tournament

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw            string
		wantTournament string
		wantEvent      string
		wantErr        bool
	}{
		{
			raw:            "https://www.start.gg/tournament/evo-2024/event/melee-singles",
			wantTournament: "evo-2024",
			wantEvent:      "tournament/evo-2024/event/melee-singles",
		},
		{
			raw:            "start.gg/tournament/genesis-10/event/melee-singles/overview?tab=x",
			wantTournament: "genesis-10",
			wantEvent:      "tournament/genesis-10/event/melee-singles/overview",
		},
		{
			raw:            "http://start.gg/tournament/the-big-house-11/event/melee-singles/",
			wantTournament: "the-big-house-11",
			wantEvent:      "tournament/the-big-house-11/event/melee-singles",
		},
		{raw: "https://www.start.gg/", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			gotTournament, gotEvent, err := ParseURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if gotTournament != tt.wantTournament || gotEvent != tt.wantEvent {
				t.Errorf("ParseURL(%q) = (%q, %q), want (%q, %q)", tt.raw, gotTournament, gotEvent, tt.wantTournament, tt.wantEvent)
			}
		})
	}
}

func TestKebabToCamel(t *testing.T) {
	tests := map[string]string{
		"evo-2024":         "evo2024",
		"the-big-house-11": "theBigHouse11",
		"genesis":          "genesis",
		"-leading":         "leading",
		"double--dash":     "doubleDash",
	}
	for in, want := range tests {
		if got := KebabToCamel(in); got != want {
			t.Errorf("KebabToCamel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDateRange(t *testing.T) {
	loc, err := LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}
	if got := DateRange(1715000000, 1715100000, loc); got != "May 06 - May 07" {
		t.Errorf("DateRange() = %q, want %q", got, "May 06 - May 07")
	}

	// 2024-05-07T02:00Z is still May 06 in Los Angeles.
	if got := DateRange(1715047200, 1715047200, loc); got != "May 06 - May 06" {
		t.Errorf("DateRange() = %q, want local date", got)
	}
}

func TestLoadLocation(t *testing.T) {
	if _, err := LoadLocation(""); err == nil {
		t.Error("expected error for empty timezone")
	}
	if _, err := LoadLocation("Mars/Olympus_Mons"); err == nil {
		t.Error("expected error for unknown timezone")
	}
	if _, err := LoadLocation("Europe/Paris"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCityAndStateAndMaps(t *testing.T) {
	if got := CityAndState("Las Vegas", "NV"); got != "Las Vegas, NV" {
		t.Errorf("CityAndState() = %q", got)
	}
	if got := CityAndState("", "NV"); got != "Unknown, NV" {
		t.Errorf("CityAndState() = %q", got)
	}
	link := MapsLink("3950 S Las Vegas Blvd, Las Vegas")
	if !strings.HasPrefix(link, "https://www.google.com/maps/search/?api=1&query=") {
		t.Errorf("MapsLink() = %q", link)
	}
	if strings.Contains(link, " ") || strings.Contains(link, "query=3950 ") {
		t.Errorf("MapsLink() not escaped: %q", link)
	}
}

func TestGenerateID_Deterministic(t *testing.T) {
	a := GenerateID("tournament/evo-2024/event/melee-singles")
	b := GenerateID("tournament/evo-2024/event/melee-singles")
	c := GenerateID("tournament/evo-2025/event/melee-singles")
	if a != b {
		t.Errorf("IDs differ for the same slug: %s vs %s", a, b)
	}
	if a == c {
		t.Error("IDs collide for different slugs")
	}
}

func TestInput_UnmarshalJSON(t *testing.T) {
	data := `{
		"start.gg-melee-singles-url": "https://www.start.gg/tournament/evo-2024/event/melee-singles",
		"stream-url": "https://twitch.tv/evo",
		"schedule-url": "",
		"top8-start-time": "2024-05-07 14:00",
		"timezone": "America/Los_Angeles",
		"name": "EVO",
		"entrants": 512
	}`

	var in Input
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if in.URL != "https://www.start.gg/tournament/evo-2024/event/melee-singles" {
		t.Errorf("URL = %q", in.URL)
	}
	if in.StreamURL != "https://twitch.tv/evo" || in.Top8StartTime != "2024-05-07 14:00" || in.Timezone != "America/Los_Angeles" {
		t.Errorf("unexpected input: %+v", in)
	}
	if v, ok := in.Override("name"); !ok || v != "EVO" {
		t.Errorf("Override(name) = %q, %v", v, ok)
	}
	if v, ok := in.Override("entrants"); !ok || v != "512" {
		t.Errorf("Override(entrants) = %q, %v", v, ok)
	}
	if err := in.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestInput_UnmarshalJSON_Rejects(t *testing.T) {
	tests := []string{
		`["not", "an", "object"]`,
		`{"name": {"nested": true}}`,
		`{"name": null}`,
	}
	for _, data := range tests {
		var in Input
		if err := json.Unmarshal([]byte(data), &in); err == nil {
			t.Errorf("Unmarshal(%s) expected error", data)
		}
	}

	if err := (Input{}).Validate(); err == nil {
		t.Error("Validate() expected error for missing URL")
	}
}

func TestRecord_FieldsCoverFieldNames(t *testing.T) {
	r := &Record{Players: PadPlayers(nil)}
	fields := r.Fields()

	names := FieldNames()
	sort.Strings(names)
	if len(names) != len(fields) {
		t.Fatalf("FieldNames() has %d names, Fields() has %d keys", len(names), len(fields))
	}
	for _, n := range names {
		if _, ok := fields[n]; !ok {
			t.Errorf("Fields() missing %q", n)
		}
	}
}

func TestRecord_ApplyOverrides(t *testing.T) {
	r := &Record{
		Name:         "Remote Name",
		CityAndState: "Unknown, NV",
		StartAt:      1,
		Players:      PadPlayers([]string{"Zain", "Cody"}),
	}

	err := r.ApplyOverrides(map[string]string{
		"name":                 "Operator Name",
		"city-and-state":       "Las Vegas, NV",
		"player1":              "Mango",
		"start-unix-timestamp": "1715000000",
		"not-a-field":          "ignored",
	})
	if err != nil {
		t.Fatalf("ApplyOverrides() error = %v", err)
	}

	if r.Name != "Operator Name" || r.CityAndState != "Las Vegas, NV" {
		t.Errorf("overrides not applied: %+v", r)
	}
	if r.Players[0] != "Zain" || r.Players[1] != "Mango" || r.Players[2] != TBD {
		t.Errorf("Players = %v", r.Players)
	}
	if r.StartAt != 1715000000 {
		t.Errorf("StartAt = %d", r.StartAt)
	}

	if err := r.ApplyOverrides(map[string]string{"end-unix-timestamp": "soon"}); err == nil {
		t.Error("expected error for non-numeric timestamp override")
	}
}

func TestLinkClass(t *testing.T) {
	if LinkClass("") != HiddenClass {
		t.Error("empty URL should be hidden")
	}
	if LinkClass("https://twitch.tv/x") != "" {
		t.Error("present URL should not be hidden")
	}
}

func TestPadPlayers(t *testing.T) {
	got := PadPlayers([]string{"A", "B", "C", "D", "E", "F", "G", "H", "I"})
	if got[7] != "H" {
		t.Errorf("PadPlayers truncation: %v", got)
	}
	got = PadPlayers([]string{"A"})
	if got[0] != "A" || got[1] != TBD || got[7] != TBD {
		t.Errorf("PadPlayers padding: %v", got)
	}
}

func TestRecord_StartEndTime(t *testing.T) {
	r := &Record{StartAt: 1715000000, EndAt: 1715100000, Timezone: "America/Los_Angeles"}
	start, err := r.StartTime()
	if err != nil {
		t.Fatal(err)
	}
	if start.Day() != 6 || start.Location().String() != "America/Los_Angeles" {
		t.Errorf("StartTime() = %v", start)
	}
	end, err := r.EndTime()
	if err != nil {
		t.Fatal(err)
	}
	if end.Day() != 7 {
		t.Errorf("EndTime() = %v", end)
	}

	r.Timezone = ""
	if _, err := r.StartTime(); err == nil {
		t.Error("expected error without timezone")
	}
}

func TestDiff(t *testing.T) {
	evo := &Record{ID: "evo", Name: "EVO 2024", Date: "May 06 - May 07", CityAndState: "Las Vegas, NV"}
	genesis := &Record{ID: "genesis", Name: "Genesis 10", Date: "Jan 01 - Jan 02", CityAndState: "San Jose, CA"}
	bighouse := &Record{ID: "bighouse", Name: "The Big House", Date: "Oct 01 - Oct 02", CityAndState: "Detroit, MI"}

	previous := NewSnapshot()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	previous.Add([]*Record{evo, genesis}, first)

	moved := *genesis
	moved.Date = "Feb 01 - Feb 02"

	t.Run("finds new tournaments in input order", func(t *testing.T) {
		result := Diff(previous, []*Record{bighouse, evo, &moved})

		if len(result.New) != 1 || result.New[0].ID != "bighouse" {
			t.Fatalf("New = %v", result.New)
		}
		if len(result.Changes) != 1 {
			t.Fatalf("Changes = %v", result.Changes)
		}
		c := result.Changes[0]
		if c.ChangeType != "date" || c.OldValue != "Jan 01 - Jan 02" || c.NewValue != "Feb 01 - Feb 02" {
			t.Errorf("unexpected change: %+v", c)
		}
	})

	t.Run("nil previous means everything is new", func(t *testing.T) {
		result := Diff(nil, []*Record{evo, genesis})
		if len(result.New) != 2 {
			t.Errorf("expected 2 new, got %d", len(result.New))
		}
	})

	t.Run("add keeps first seen", func(t *testing.T) {
		later := first.Add(48 * time.Hour)
		previous.Add([]*Record{evo, bighouse}, later)
		if !previous.Tournaments["evo"].FirstSeen.Equal(first) {
			t.Errorf("FirstSeen overwritten: %v", previous.Tournaments["evo"].FirstSeen)
		}
		if !previous.Tournaments["bighouse"].FirstSeen.Equal(later) {
			t.Errorf("FirstSeen for new entry = %v", previous.Tournaments["bighouse"].FirstSeen)
		}
	})
}
