package source

import (
	"context"

	"github.com/rickgao/interaction-feed/internal/model"
)

// EmitFunc receives each produced event. It may be called from several
// goroutines at once.
type EmitFunc func(model.InteractionEvent)

// Source produces events until ctx is done or it runs out.
// Run returns nil on cancellation.
type Source interface {
	Run(ctx context.Context, emit EmitFunc) error
}
