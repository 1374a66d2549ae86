package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
)

type Cleaner interface {
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// Janitor prunes journal entries older than maxAge on a fixed interval.
type Janitor struct {
	log      *slog.Logger
	cleaner  Cleaner
	maxAge   time.Duration
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewJanitor(log *slog.Logger, cleaner Cleaner, maxAge, interval time.Duration) *Janitor {
	return &Janitor{
		log:      log,
		cleaner:  cleaner,
		maxAge:   maxAge,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (j *Janitor) Start(ctx context.Context) {
	j.log.Info("starting journal janitor",
		slog.Duration("max_age", j.maxAge),
		slog.Duration("interval", j.interval),
	)

	j.wg.Add(1)
	go j.run(ctx)
}

func (j *Janitor) Stop() {
	close(j.stopCh)
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.cleanup(ctx)
		}
	}
}

func (j *Janitor) cleanup(ctx context.Context) {
	if err := j.cleaner.Cleanup(ctx, j.maxAge); err != nil {
		j.log.Error("failed to cleanup old journal entries", sl.Err(err))
	}
}
