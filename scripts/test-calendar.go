package main

import (
	"fmt"
	"os"
	"time"

	"github.com/meleemajors/meleemajors/internal/calendar"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

func main() {
	start := time.Date(2026, time.April, 17, 10, 0, 0, 0, time.UTC)

	// A sample weekend major
	r := &tournament.Record{
		ID:           tournament.GenerateID("tournament/sample-major/event/melee-singles"),
		Slug:         "sample-major",
		Name:         "Sample Major 2026",
		Date:         "April 17 - April 19",
		StartAt:      start.Unix(),
		EndAt:        start.Add(56 * time.Hour).Unix(),
		Timezone:     "America/Los_Angeles",
		Entrants:     tournament.TBD,
		CityAndState: "San Jose, CA",
		FullAddress:  "150 W San Carlos St, San Jose, CA 95113",
		BracketURL:   "https://www.start.gg/tournament/sample-major/event/melee-singles",
		Players:      tournament.PadPlayers([]string{"Zain", "Cody", "Mang0"}),
	}

	cal := calendar.New(time.Now())
	if err := cal.Add(r); err != nil {
		fmt.Fprintf(os.Stderr, "Error building calendar: %v\n", err)
		os.Exit(1)
	}
	icsContent := cal.Serialize()

	// Write to file (owner read/write only)
	filename := "test-melee-major.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or subscribe to site/calendar.ics from Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
