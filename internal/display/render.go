package display

import (
	"fmt"
	"io"

	"github.com/rickgao/interaction-feed/internal/feed"
	"github.com/rickgao/interaction-feed/internal/model"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiDim    = "\x1b[2m"
)

// Renderer formats status and event lines.
type Renderer struct {
	Color bool
}

// Status returns the indicator for s.
func (r Renderer) Status(s feed.Status) string {
	var symbol, color string
	switch s {
	case feed.StatusConnected:
		symbol, color = "●", ansiGreen
	case feed.StatusConnecting:
		symbol, color = "○", ansiYellow
	default:
		symbol, color = "✕", ansiRed
	}

	line := symbol + " " + s.String()
	if r.Color {
		return color + line + ansiReset
	}
	return line
}

// Entry returns the line for the event at position idx.
func (r Renderer) Entry(idx int, evt model.InteractionEvent) string {
	meta := fmt.Sprintf("%s  %s", evt.Timestamp, evt.InteractionType)
	if r.Color {
		meta = ansiDim + meta + ansiReset
	}
	return fmt.Sprintf("%4d  %-24s %s  [%s]", idx+1, evt.ProductName, meta, evt.Identifier)
}

// Snapshot writes the status followed by every event.
func (r Renderer) Snapshot(w io.Writer, status feed.Status, events []model.InteractionEvent) error {
	if _, err := fmt.Fprintln(w, r.Status(status)); err != nil {
		return err
	}
	for i, evt := range events {
		if _, err := fmt.Fprintln(w, r.Entry(i, evt)); err != nil {
			return err
		}
	}
	return nil
}
