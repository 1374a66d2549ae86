package refresh

import (
	"context"

	"github.com/speedwagon-io/plantdash/internal/model"
)

// Observer receives the outcome of every refresh task. Implementations are
// called concurrently.
type Observer interface {
	Observe(ctx context.Context, outcome *model.Outcome)
}

// RunObserver is optionally implemented by observers that also want the run
// summary.
type RunObserver interface {
	ObserveRun(ctx context.Context, report *model.Report)
}

type ObserverFunc func(ctx context.Context, outcome *model.Outcome)

func (f ObserverFunc) Observe(ctx context.Context, outcome *model.Outcome) {
	f(ctx, outcome)
}

// Observers fans out to each member.
type Observers []Observer

func (obs Observers) Observe(ctx context.Context, outcome *model.Outcome) {
	for _, o := range obs {
		o.Observe(ctx, outcome)
	}
}

func (obs Observers) ObserveRun(ctx context.Context, report *model.Report) {
	for _, o := range obs {
		if ro, ok := o.(RunObserver); ok {
			ro.ObserveRun(ctx, report)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, *model.Outcome) {}
