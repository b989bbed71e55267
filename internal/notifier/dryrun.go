package notifier

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/meleemajors/meleemajors/internal/tournament"
)

// DryRunNotifier prints what would be tweeted without actually posting
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout if nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the tweets that would be posted
func (n *DryRunNotifier) Notify(records []*tournament.Record) error {
	for i, r := range records {
		tweet := FormatTweet(r)
		fmt.Fprintf(n.out, "--- Tweet %d/%d ---\n", i+1, len(records))
		fmt.Fprintln(n.out, tweet)
		fmt.Fprintf(n.out, "\n(Length: %d characters)\n\n", utf8.RuneCountInString(tweet))
	}
	return nil
}
