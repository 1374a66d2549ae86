package health

import (
	"context"
	"fmt"
	"time"
)

// UpstreamHealthChecker reports the dashboard backend as degraded, never
// unhealthy: refreshes keep running and fall back per task.
type UpstreamHealthChecker struct {
	healthFunc func(ctx context.Context) error
}

func NewUpstreamHealthChecker(healthFunc func(ctx context.Context) error) *UpstreamHealthChecker {
	return &UpstreamHealthChecker{healthFunc: healthFunc}
}

func (c *UpstreamHealthChecker) Name() string {
	return "dashboard_api"
}

func (c *UpstreamHealthChecker) Check(ctx context.Context) (Status, string) {
	if err := c.healthFunc(ctx); err != nil {
		return StatusDegraded, err.Error()
	}
	return StatusHealthy, ""
}

type JournalHealthChecker struct {
	countFunc func(ctx context.Context, since time.Time) (int64, error)
	window    time.Duration
	threshold int64
}

// NewJournalHealthChecker degrades once more than threshold failures were
// journaled in the last hour.
func NewJournalHealthChecker(countFunc func(ctx context.Context, since time.Time) (int64, error), threshold int64) *JournalHealthChecker {
	return &JournalHealthChecker{
		countFunc: countFunc,
		window:    time.Hour,
		threshold: threshold,
	}
}

func (c *JournalHealthChecker) Name() string {
	return "journal"
}

func (c *JournalHealthChecker) Check(ctx context.Context) (Status, string) {
	count, err := c.countFunc(ctx, time.Now().Add(-c.window))
	if err != nil {
		return StatusUnhealthy, err.Error()
	}

	if count > c.threshold {
		return StatusDegraded, fmt.Sprintf("%d failed refresh tasks in the last %s", count, c.window)
	}

	return StatusHealthy, ""
}
