package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/meleemajors/meleemajors/internal/config"
	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/site"
	"github.com/meleemajors/meleemajors/internal/storage"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeJSONFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func readPlayers(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, storage.PlayersFile))
	if err != nil {
		t.Fatal(err)
	}
	var players []string
	if err := json.Unmarshal(data, &players); err != nil {
		t.Fatal(err)
	}
	return players
}

func TestQueryCmd(t *testing.T) {
	dir := t.TempDir()
	writeJSONFile(t, filepath.Join(dir, storage.PlayersFile), []string{"Zain", "Cody"})

	out, err := runCmd(t, "query", "--data-dir", dir)
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if !strings.Contains(out, `_1: entrants(query: { page: 0, filter: { name: "Cody" } })`) {
		t.Errorf("unexpected query output:\n%s", out)
	}
}

func TestRankingsCmd(t *testing.T) {
	page, err := os.ReadFile("../../testdata/fixtures/ssbmrank.html")
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(page)
	}))
	defer server.Close()

	dir := t.TempDir()
	writeJSONFile(t, filepath.Join(dir, storage.PlayersFile), []string{"Legacy Player", "Zain"})

	if _, err := runCmd(t, "rankings", "--data-dir", dir, "--url", server.URL); err != nil {
		t.Fatalf("rankings error = %v", err)
	}

	players := readPlayers(t, dir)
	if len(players) != 13 {
		t.Fatalf("expected 12 ranked players plus 1 kept, got %v", players)
	}
	if players[0] != "Zain" || players[len(players)-1] != "Legacy Player" {
		t.Errorf("unexpected merge order: %v", players)
	}
}

func TestRankingsCmd_NoTableKeepsList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body><p>maintenance</p></body></html>")
	}))
	defer server.Close()

	dir := t.TempDir()
	writeJSONFile(t, filepath.Join(dir, storage.PlayersFile), []string{"Zain"})

	if _, err := runCmd(t, "rankings", "--data-dir", dir, "--url", server.URL); err != nil {
		t.Fatalf("a missing ranking table should only warn, got %v", err)
	}
	if players := readPlayers(t, dir); len(players) != 1 || players[0] != "Zain" {
		t.Errorf("player list changed: %v", players)
	}
}

func TestBuildCmd_MissingToken(t *testing.T) {
	t.Setenv("STARTGGAPI", "")

	_, err := runCmd(t, "build", "--data-dir", t.TempDir(), "--site-dir", t.TempDir())
	cErr, ok := config.AsConfigError(err)
	if !ok {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cErr.Key != "STARTGGAPI" {
		t.Errorf("Key = %q", cErr.Key)
	}
}

func TestBuildCmd_InvalidFormat(t *testing.T) {
	_, err := runCmd(t, "build", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("expected invalid format error, got %v", err)
	}
}

func TestBuildCmd_InvalidLogFormat(t *testing.T) {
	_, err := runCmd(t, "query", "--log-format", "yaml")
	if err == nil || !strings.Contains(err.Error(), "invalid log format") {
		t.Errorf("expected invalid log format error, got %v", err)
	}
}

// copyTemplates copies the repository's page templates into dir.
func copyTemplates(t *testing.T, dir string) {
	t.Helper()
	dst := filepath.Join(dir, HTMLTemplatesDir)
	if err := os.MkdirAll(dst, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"header.html", "templateCard.html", "footer.html"} {
		data, err := os.ReadFile(filepath.Join("../../data/html", name))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dst, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func startggServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(req.Query, "getTournamentInfo"):
			io.WriteString(w, `{"data": {
				"tournament": {
					"name": "Genesis 10",
					"startAt": 1713549600,
					"endAt": 1713736800,
					"timezone": "America/Los_Angeles",
					"venueAddress": "150 W San Carlos St, San Jose, CA",
					"city": "San Jose",
					"addrState": "CA",
					"images": []
				},
				"event": {"id": 42}
			}}`)
		case strings.Contains(req.Query, "getTournamentEntrants"):
			io.WriteString(w, `{"data": {"event": {"numEntrants": 1024}}}`)
		case strings.Contains(req.Query, "getFeaturedPlayers"):
			io.WriteString(w, `{"data": {"event": {
				"_0": {"nodes": [{"name": "Zain"}]},
				"_1": {"nodes": [{"name": "FLY | Cody"}]}
			}}}`)
		default:
			t.Errorf("unexpected query: %s", req.Query)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBuildCmd_EndToEnd(t *testing.T) {
	server := startggServer(t)
	t.Setenv("STARTGGAPI", "test-token")
	t.Setenv("STARTGG_ENDPOINT", server.URL)
	t.Setenv("KIT_API_KEY", "")

	dataDir := t.TempDir()
	siteDir := t.TempDir()
	copyTemplates(t, dataDir)
	writeJSONFile(t, filepath.Join(dataDir, storage.PlayersFile), []string{"Zain", "Cody"})
	writeJSONFile(t, filepath.Join(dataDir, storage.TournamentsFile), []map[string]string{
		{"start.gg-melee-singles-url": "https://www.start.gg/tournament/genesis-10/event/melee-singles"},
	})
	metrics := filepath.Join(t.TempDir(), "meleemajors.prom")

	out, err := runCmd(t, "build", "--data-dir", dataDir, "--site-dir", siteDir, "--metrics-file", metrics)
	if err != nil {
		t.Fatalf("build error = %v\n%s", err, out)
	}

	index, err := os.ReadFile(filepath.Join(siteDir, site.IndexFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Genesis 10", "San Jose, CA", "1024", "Zain", "Cody"} {
		if !strings.Contains(string(index), want) {
			t.Errorf("index.html missing %q", want)
		}
	}
	if _, err := os.Stat(filepath.Join(siteDir, site.CalendarFile)); err != nil {
		t.Errorf("calendar.ics not written: %v", err)
	}
	if _, err := os.Stat(metrics); err != nil {
		t.Errorf("metrics not written: %v", err)
	}
	if !strings.Contains(out, "Built 1 tournaments") || !strings.Contains(out, "Next steps:") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestWriteOutput(t *testing.T) {
	result := &OutputResult{
		SiteDir:     "site",
		Tournaments: []TournamentOutput{{ID: "1", Name: "Genesis 10", Date: "April 19 - April 21", Location: "San Jose, CA", Entrants: "1024"}},
		Failed:      []FailureOutput{{URL: "https://www.start.gg/tournament/x/event/y", Error: "missing field startAt"}},
		Broadcasts:  []BroadcastOutput{{Action: "created", Subject: "Genesis 10 is next week"}},
		NextSteps:   NextSteps("site"),
	}

	tests := []struct {
		name     string
		format   OutputFormat
		contains []string
	}{
		{
			name:   "text",
			format: FormatText,
			contains: []string{
				"Genesis 10 (April 19 - April 21, San Jose, CA)",
				"FAILED: https://www.start.gg/tournament/x/event/y",
				"created: Genesis 10 is next week",
				`1. preview locally w/ e.g. "live-server site"`,
				"3. Review scheduled emails: https://app.kit.com/campaigns",
			},
		},
		{
			name:     "json",
			format:   FormatJSON,
			contains: []string{`"name": "Genesis 10"`, `"error": "missing field startAt"`, `"next_steps"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOutput(&buf, result, tt.format, false); err != nil {
				t.Fatalf("WriteOutput() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestWriteOutput_Bailed(t *testing.T) {
	var buf bytes.Buffer
	result := NewOutputResult(&site.Result{Bailed: true}, "site")
	if err := WriteOutput(&buf, result, FormatText, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "nothing was written") || strings.Contains(buf.String(), "Next steps") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestWriteOutput_VerboseMetrics(t *testing.T) {
	m := logger.NewMetrics()
	m.IncrCounter("images.downloaded")
	m.IncrCounter("images.downloaded")
	m.SetGauge("site.tournaments.built", 3)
	m.RecordTiming("startgg.query", 250*time.Millisecond)

	result := &OutputResult{SiteDir: "site", Metrics: m.GetSnapshot()}

	var buf bytes.Buffer
	if err := WriteOutput(&buf, result, FormatText, true); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Run metrics:",
		"images.downloaded: 2",
		"site.tournaments.built: 3",
		"startgg.query: 1 calls, avg 250ms, max 250ms",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := WriteOutput(&buf, result, FormatText, false); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Run metrics:") {
		t.Errorf("metrics should only be shown when verbose:\n%s", buf.String())
	}
}

func TestBuildCmd_VerboseShowsRunMetrics(t *testing.T) {
	server := startggServer(t)
	t.Setenv("STARTGGAPI", "test-token")
	t.Setenv("STARTGG_ENDPOINT", server.URL)
	t.Setenv("KIT_API_KEY", "")

	dataDir := t.TempDir()
	copyTemplates(t, dataDir)
	writeJSONFile(t, filepath.Join(dataDir, storage.PlayersFile), []string{"Zain", "Cody"})
	writeJSONFile(t, filepath.Join(dataDir, storage.TournamentsFile), []map[string]string{
		{"start.gg-melee-singles-url": "https://www.start.gg/tournament/genesis-10/event/melee-singles"},
	})

	out, err := runCmd(t, "build", "--data-dir", dataDir, "--site-dir", t.TempDir(), "--verbose")
	if err != nil {
		t.Fatalf("build error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Run metrics:") || !strings.Contains(out, "site.tournaments.built: 1") {
		t.Errorf("verbose summary should include run metrics:\n%s", out)
	}
}
