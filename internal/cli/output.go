package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/meleemajors/meleemajors/internal/site"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	BuiltAt     time.Time          `json:"built_at"`
	SiteDir     string             `json:"site_dir"`
	Tournaments []TournamentOutput `json:"tournaments"`
	Failed      []FailureOutput    `json:"failed,omitempty"`
	Broadcasts  []BroadcastOutput  `json:"broadcasts,omitempty"`
	Announced   []string           `json:"announced,omitempty"`
	Pruned      []string           `json:"pruned_images,omitempty"`
	Bailed      bool               `json:"bailed,omitempty"`
	NextSteps   []string           `json:"next_steps,omitempty"`

	// Metrics is the run's counter, gauge and timing snapshot (verbose only).
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// TournamentOutput is a built tournament.
type TournamentOutput struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Entrants string `json:"entrants"`
}

// FailureOutput is a skipped tournament.
type FailureOutput struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// BroadcastOutput is a scheduled email.
type BroadcastOutput struct {
	Action  string `json:"action"`
	Subject string `json:"subject"`
	SendAt  string `json:"send_at"`
}

// NewOutputResult converts a run result for display.
func NewOutputResult(result *site.Result, siteDir string) *OutputResult {
	out := &OutputResult{
		BuiltAt:     time.Now().UTC(),
		SiteDir:     siteDir,
		Tournaments: make([]TournamentOutput, 0, len(result.Records)),
		Pruned:      result.Pruned,
		Bailed:      result.Bailed,
	}
	for _, r := range result.Records {
		out.Tournaments = append(out.Tournaments, TournamentOutput{
			ID:       r.ID,
			Slug:     r.Slug,
			Name:     r.Name,
			Date:     r.Date,
			Location: r.CityAndState,
			Entrants: r.Entrants,
		})
	}
	for _, f := range result.Failed {
		out.Failed = append(out.Failed, FailureOutput{URL: f.URL, Error: f.Err.Error()})
	}
	for _, b := range result.Broadcasts {
		out.Broadcasts = append(out.Broadcasts, BroadcastOutput{
			Action:  string(b.Action),
			Subject: b.Broadcast.Subject,
			SendAt:  b.Broadcast.SendAt,
		})
	}
	for _, r := range result.Announced {
		out.Announced = append(out.Announced, r.Name)
	}
	if !result.Bailed {
		out.NextSteps = NextSteps(siteDir)
	}
	return out
}

// NextSteps lists what to do after a successful build.
func NextSteps(siteDir string) []string {
	return []string{
		fmt.Sprintf("preview locally w/ e.g. \"live-server %s\"", filepath.Base(siteDir)),
		"git commit & push to main to deploy site",
		"Review scheduled emails: https://app.kit.com/campaigns",
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.Tournaments) == 0 {
		fmt.Fprintln(w, "No tournaments built.")
	} else {
		fmt.Fprintf(w, "\nBuilt %d tournaments:\n", len(result.Tournaments))
		for _, t := range result.Tournaments {
			fmt.Fprintf(w, "  %s (%s, %s)\n", t.Name, t.Date, t.Location)
			if verbose {
				fmt.Fprintf(w, "       ID: %s\n", t.ID)
				fmt.Fprintf(w, "       Slug: %s\n", t.Slug)
				fmt.Fprintf(w, "       Entrants: %s\n", t.Entrants)
			}
		}
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "\nSkipped %d tournaments:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(w, "  FAILED: %s\n", f.URL)
			fmt.Fprintf(w, "       %s\n", f.Error)
		}
	}

	if len(result.Broadcasts) > 0 {
		fmt.Fprintf(w, "\nBroadcasts (%d):\n", len(result.Broadcasts))
		for _, b := range result.Broadcasts {
			fmt.Fprintf(w, "  %s: %s\n", b.Action, b.Subject)
			if verbose && b.SendAt != "" {
				fmt.Fprintf(w, "       Send at: %s\n", b.SendAt)
			}
		}
	}

	if len(result.Announced) > 0 {
		fmt.Fprintf(w, "\nAnnounced %d new tournaments\n", len(result.Announced))
	}

	if verbose && len(result.Pruned) > 0 {
		fmt.Fprintf(w, "\nRemoved %d unused images\n", len(result.Pruned))
	}

	if verbose && len(result.Metrics) > 0 {
		writeMetrics(w, result.Metrics)
	}

	if result.Bailed {
		fmt.Fprintln(w, "\nBailed after the first tournament, nothing was written.")
		return nil
	}

	if len(result.NextSteps) > 0 {
		fmt.Fprintln(w, "\nNext steps:")
		for i, step := range result.NextSteps {
			fmt.Fprintf(w, "%d. %s\n", i+1, step)
		}
	}
	return nil
}

// writeMetrics prints a logger metrics snapshot sorted by name.
func writeMetrics(w io.Writer, snapshot map[string]interface{}) {
	fmt.Fprintln(w, "\nRun metrics:")
	if counters, ok := snapshot["counters"].(map[string]int64); ok {
		for _, name := range sortedKeys(counters) {
			fmt.Fprintf(w, "  %s: %d\n", name, counters[name])
		}
	}
	if gauges, ok := snapshot["gauges"].(map[string]float64); ok {
		for _, name := range sortedKeys(gauges) {
			fmt.Fprintf(w, "  %s: %g\n", name, gauges[name])
		}
	}
	if timings, ok := snapshot["timings"].(map[string]map[string]interface{}); ok {
		for _, name := range sortedKeys(timings) {
			t := timings[name]
			fmt.Fprintf(w, "  %s: %v calls, avg %v, max %v\n", name, t["count"], t["average"], t["max"])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
