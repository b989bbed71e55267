package mailing

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunService prints the broadcasts that would be written and keeps them in
// memory so repeated scheduling within a run still finds them.
type DryRunService struct {
	out        io.Writer
	broadcasts []Broadcast
	nextID     int64
}

// NewDryRunService creates a dry-run service printing to out (stdout if nil).
func NewDryRunService(out io.Writer) *DryRunService {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunService{out: out, nextID: 1}
}

// ListBroadcasts returns the broadcasts created during this run.
func (d *DryRunService) ListBroadcasts(ctx context.Context) ([]Broadcast, error) {
	return append([]Broadcast(nil), d.broadcasts...), nil
}

// CreateBroadcast prints the broadcast and assigns it a local id.
func (d *DryRunService) CreateBroadcast(ctx context.Context, in BroadcastInput) (*Broadcast, error) {
	b := Broadcast{ID: d.nextID, Subject: in.Subject, Content: in.Content, SendAt: in.SendAt}
	d.nextID++
	d.broadcasts = append(d.broadcasts, b)
	d.print("create", b)
	return &b, nil
}

// UpdateBroadcast prints the update.
func (d *DryRunService) UpdateBroadcast(ctx context.Context, id int64, in BroadcastInput) (*Broadcast, error) {
	b := Broadcast{ID: id, Subject: in.Subject, Content: in.Content, SendAt: in.SendAt}
	for i := range d.broadcasts {
		if d.broadcasts[i].ID == id {
			d.broadcasts[i] = b
		}
	}
	d.print("update", b)
	return &b, nil
}

func (d *DryRunService) print(action string, b Broadcast) {
	fmt.Fprintf(d.out, "--- Broadcast %s #%d ---\n", action, b.ID)
	fmt.Fprintf(d.out, "Subject: %s\nSend at: %s\n\n%s\n\n", b.Subject, b.SendAt, b.Content)
}
