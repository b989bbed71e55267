package rankings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"github.com/meleemajors/meleemajors/internal/logger"
)

const (
	DefaultURL = "https://liquipedia.net/smash/SSBMRank"
	UserAgent  = "Mozilla/5.0 (compatible; MeleeMajorsBot/1.0)"

	// MaxPlayers is how many names are taken from a ranking table.
	MaxPlayers = 50
	// MinPlayers is the size below which a table is not a ranking.
	MinPlayers = 10
)

// ErrNoRankingTable is returned when no table on the page looks like a ranking.
var ErrNoRankingTable = errors.New("no ranking table found")

// Fetcher downloads the ranking page.
type Fetcher struct {
	URL     string
	Timeout time.Duration
	Log     *logger.Logger
}

// NewFetcher creates a fetcher for url, or the SSBMRank page if empty.
func NewFetcher(url string, log *logger.Logger) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if log == nil {
		log = logger.Default()
	}
	return &Fetcher{URL: url, Timeout: 30 * time.Second, Log: log}
}

// Fetch downloads the page and parses the newest ranking from it.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(UserAgent))
	c.SetRequestTimeout(f.Timeout)

	var body []byte
	var failed error
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		failed = fmt.Errorf("fetching %s: status %d: %w", f.URL, r.StatusCode, err)
	})

	f.Log.Info("fetching rankings", logger.Fields{"url": f.URL})
	if err := c.Visit(f.URL); err != nil && failed == nil {
		failed = fmt.Errorf("fetching %s: %w", f.URL, err)
	}
	if failed != nil {
		return nil, failed
	}

	return Parse(bytes.NewReader(body))
}

// Parse extracts player names from the last table.wikitable on the page that
// holds at least MinPlayers ranked rows.
func Parse(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing ranking page: %w", err)
	}

	tables := doc.Find("table.wikitable")
	for i := tables.Length() - 1; i >= 0; i-- {
		players := parseTable(tables.Eq(i))
		if len(players) >= MinPlayers {
			return players, nil
		}
	}
	return nil, ErrNoRankingTable
}

func parseTable(table *goquery.Selection) []string {
	var players []string
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		if _, err := strconv.Atoi(strings.TrimSpace(cells.First().Text())); err != nil {
			return true
		}

		name := playerName(cells.Eq(1))
		if name == "" || name == "-" || strings.Contains(name, "TBD") {
			return true
		}
		players = append(players, name)
		return len(players) < MaxPlayers
	})
	return players
}

// playerName is the first non-empty link text in the cell, or the cell text.
func playerName(cell *goquery.Selection) string {
	name := ""
	cell.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		name = strings.TrimSpace(a.Text())
		return name == ""
	})
	if name != "" {
		return name
	}
	return strings.TrimSpace(cell.Text())
}

// Merge puts the fresh ranking first, followed by existing players missing
// from it in their original order. Duplicates are dropped.
func Merge(existing, fresh []string) []string {
	seen := make(map[string]bool, len(existing)+len(fresh))
	merged := make([]string, 0, len(existing)+len(fresh))
	for _, list := range [][]string{fresh, existing} {
		for _, name := range list {
			if seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged
}
