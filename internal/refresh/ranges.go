package refresh

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/speedwagon-io/plantdash/internal/dashapi"
	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
	"github.com/speedwagon-io/plantdash/internal/model"
)

// Series is an opaque ordered payload (today's readings, sunlight history).
type Series = []any

// Average is the opaque month-to-date mapping.
type Average = map[string]any

// LoadToday resolves to today's readings for entityID, or an empty Series on
// failure.
func (o *Orchestrator) LoadToday(ctx context.Context, entityID string) *Future[Series] {
	return o.loadSeries(ctx, o.newTracker(entityID), model.UnitToday, dashapi.TodayPath(entityID), entityID)
}

// LoadSunlight resolves to the 30-day sunlight series, or an empty Series on
// failure.
func (o *Orchestrator) LoadSunlight(ctx context.Context, entityID string) *Future[Series] {
	return o.loadSeries(ctx, o.newTracker(entityID), model.UnitSunlight, dashapi.SunlightPath(entityID), entityID)
}

// LoadAverage resolves to the month-to-date averages, or an empty Average on
// failure.
func (o *Orchestrator) LoadAverage(ctx context.Context, entityID string) *Future[Average] {
	return o.loadAverage(ctx, o.newTracker(entityID), entityID)
}

func (o *Orchestrator) loadSeries(ctx context.Context, t *tracker, unit model.Unit, path, entityID string) *Future[Series] {
	return Go(func() Series {
		var s Series
		if !o.loadRange(ctx, t, unit, path, entityID, &s) || s == nil {
			return Series{}
		}
		return s
	})
}

func (o *Orchestrator) loadAverage(ctx context.Context, t *tracker, entityID string) *Future[Average] {
	return Go(func() Average {
		var a Average
		if !o.loadRange(ctx, t, model.UnitAverage, dashapi.AveragePath(entityID), entityID, &a) || a == nil {
			return Average{}
		}
		return a
	})
}

// loadRange reports whether v was filled from a successful response.
func (o *Orchestrator) loadRange(ctx context.Context, t *tracker, unit model.Unit, path, entityID string, v any) bool {
	start := time.Now()

	if err := o.api.GetJSON(ctx, path, v); err != nil {
		o.log.Error("failed to load range data",
			slog.String("run_id", t.runID()),
			slog.String("range", string(unit)),
			slog.String("entity_id", entityID),
			sl.Err(err),
		)
		t.record(ctx, unit, path, entityID, model.StatusFailed, start, err)
		return false
	}

	t.record(ctx, unit, path, entityID, model.StatusOK, start, nil)
	return true
}

// RangeConsumer receives each range payload as it resolves.
type RangeConsumer interface {
	Today(entityID string, data Series)
	Sunlight(entityID string, data Series)
	Average(entityID string, data Average)
}

// LogConsumer writes range payloads to the log instead of rendering them.
type LogConsumer struct {
	log *slog.Logger
}

func NewLogConsumer(log *slog.Logger) *LogConsumer {
	return &LogConsumer{log: log}
}

func (c *LogConsumer) Today(entityID string, data Series) {
	c.emit("today data loaded", entityID, len(data), data)
}

func (c *LogConsumer) Sunlight(entityID string, data Series) {
	c.emit("sunlight data loaded", entityID, len(data), data)
}

func (c *LogConsumer) Average(entityID string, data Average) {
	c.emit("average data loaded", entityID, len(data), data)
}

func (c *LogConsumer) emit(msg, entityID string, size int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		c.log.Error("failed to marshal range data", slog.String("entity_id", entityID), sl.Err(err))
		return
	}

	c.log.Info(msg,
		slog.String("entity_id", entityID),
		slog.Int("size", size),
		slog.String("payload", string(payload)),
	)
}
