package display

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/rickgao/interaction-feed/internal/fanout"
	"github.com/rickgao/interaction-feed/internal/feed"
	"github.com/rickgao/interaction-feed/internal/model"
)

// Feed is the part of feed.Manager the display reads.
type Feed interface {
	Status() feed.Status
	Events() []model.InteractionEvent
	Subscribe() *fanout.Subscriber[feed.Update]
	Unsubscribe(id uuid.UUID)
}

// Watch writes the current state of f and then every later update until
// ctx is done or f stops delivering updates.
func Watch(ctx context.Context, f Feed, w io.Writer, r Renderer) error {
	sub := f.Subscribe()
	defer f.Unsubscribe(sub.ID)

	// Subscribe first so nothing is missed; events already in the snapshot
	// are skipped by index.
	status := f.Status()
	events := f.Events()
	if err := r.Snapshot(w, status, events); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	shown := len(events)

	for {
		u, ok := sub.Buffer.ReceiveContext(ctx)
		if !ok {
			return nil
		}

		var line string
		switch u.Kind {
		case feed.UpdateStatus:
			if u.Status == status {
				continue
			}
			status = u.Status
			line = r.Status(status)
		case feed.UpdateEvent:
			if u.Index < shown {
				continue
			}
			shown = u.Index + 1
			line = r.Entry(u.Index, u.Event)
		default:
			continue
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write update: %w", err)
		}
	}
}
