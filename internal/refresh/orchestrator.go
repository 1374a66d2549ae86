package refresh

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/speedwagon-io/plantdash/internal/dashapi"
	"github.com/speedwagon-io/plantdash/internal/model"
)

// Fetcher is the HTTP boundary the refreshers talk to.
type Fetcher interface {
	GetText(ctx context.Context, path string, query url.Values) (string, error)
	GetJSON(ctx context.Context, path string, v any) error
}

type Orchestrator struct {
	log      *slog.Logger
	api      Fetcher
	panels   []Panel
	observer Observer
	consumer RangeConsumer
}

type Option func(*Orchestrator)

func WithPanels(panels []Panel) Option {
	return func(o *Orchestrator) {
		o.panels = panels
	}
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithRangeConsumer(c RangeConsumer) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.consumer = c
		}
	}
}

func New(log *slog.Logger, api Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:      log,
		api:      api,
		panels:   DefaultPanels,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.consumer == nil {
		o.consumer = NewLogConsumer(log)
	}
	return o
}

// Run refreshes every region of page for entityID: plot panels, latest-value
// rows and the three range loaders are dispatched together and race
// independently. Run returns once all of them have settled; no task failure
// stops another.
func (o *Orchestrator) Run(ctx context.Context, page Page, entityID string) *model.Report {
	t := o.newTracker(entityID)

	o.log.Info("starting page refresh",
		slog.String("run_id", t.report.RunID),
		slog.String("entity_id", entityID),
	)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		o.refreshPanels(ctx, t, page, entityID)
	}()
	go func() {
		defer wg.Done()
		o.refreshRows(ctx, t, page)
	}()

	today := o.loadSeries(ctx, t, model.UnitToday, dashapi.TodayPath(entityID), entityID)
	sunlight := o.loadSeries(ctx, t, model.UnitSunlight, dashapi.SunlightPath(entityID), entityID)
	average := o.loadAverage(ctx, t, entityID)

	consumed := []*Future[struct{}]{
		today.Then(func(s Series) { o.consumer.Today(entityID, s) }),
		sunlight.Then(func(s Series) { o.consumer.Sunlight(entityID, s) }),
		average.Then(func(a Average) { o.consumer.Average(entityID, a) }),
	}

	wg.Wait()
	for _, c := range consumed {
		<-c.Done()
	}

	report := t.finish()
	if ro, ok := o.observer.(RunObserver); ok {
		ro.ObserveRun(ctx, report)
	}

	o.log.Info("page refresh finished",
		slog.String("run_id", report.RunID),
		slog.String("entity_id", entityID),
		slog.Int("failed", report.Total(model.StatusFailed)),
		slog.Duration("duration", report.Duration),
	)

	return report
}

// tracker collects the outcomes of one run.
type tracker struct {
	observer Observer
	mu       sync.Mutex
	report   *model.Report
}

func (o *Orchestrator) newTracker(entityID string) *tracker {
	return &tracker{
		observer: o.observer,
		report:   model.NewReport(model.NewRunID(), entityID),
	}
}

func (t *tracker) runID() string {
	return t.report.RunID
}

func (t *tracker) record(ctx context.Context, unit model.Unit, target, entityID string, status model.Status, started time.Time, err error) {
	outcome := model.NewOutcome(t.runID(), unit, target, entityID, status, time.Since(started))
	if err != nil {
		outcome.WithError(dashapi.Kind(err), err)
	}

	t.mu.Lock()
	t.report.Add(unit, status)
	t.mu.Unlock()

	t.observer.Observe(ctx, outcome)
}

func (t *tracker) finish() *model.Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.Duration = time.Since(t.report.Started)
	return t.report
}
