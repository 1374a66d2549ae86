package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/speedwagon-io/plantdash/internal/dashapi"
	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
	"github.com/speedwagon-io/plantdash/internal/model"
)

// PanelErrorPlaceholder replaces a panel whose plot could not be fetched.
const PanelErrorPlaceholder = "<p>Error loading plot data</p>"

// Panel binds a page region to the plot metric rendered into it.
type Panel struct {
	RegionID  string
	MetricKey string
}

var DefaultPanels = []Panel{
	{RegionID: "plot-sun", MetricKey: "sunlight"},
	{RegionID: "plot-temp", MetricKey: "temperature"},
	{RegionID: "plot-soil", MetricKey: "soil"},
	{RegionID: "plot-air", MetricKey: "luftfeuchtigkeit"},
}

// RefreshPanels fetches every plot whose region exists in sink.
func (o *Orchestrator) RefreshPanels(ctx context.Context, sink PanelSink, entityID string) *model.Report {
	t := o.newTracker(entityID)
	o.refreshPanels(ctx, t, sink, entityID)
	return t.finish()
}

func (o *Orchestrator) refreshPanels(ctx context.Context, t *tracker, sink PanelSink, entityID string) {
	var wg sync.WaitGroup

	for _, panel := range o.panels {
		if !sink.HasRegion(panel.RegionID) {
			o.log.Debug("panel region not on page",
				slog.String("region", panel.RegionID),
			)
			t.record(ctx, model.UnitPanel, panel.RegionID, entityID, model.StatusSkipped, time.Now(), nil)
			continue
		}

		wg.Add(1)
		go func(p Panel) {
			defer wg.Done()
			o.refreshPanel(ctx, t, sink, p, entityID)
		}(panel)
	}

	wg.Wait()
}

func (o *Orchestrator) refreshPanel(ctx context.Context, t *tracker, sink PanelSink, p Panel, entityID string) {
	start := time.Now()

	html, err := o.api.GetText(ctx, dashapi.PlotPath(p.MetricKey), dashapi.PlotQuery(entityID))
	if err != nil {
		o.log.Error("failed to load plot",
			slog.String("run_id", t.runID()),
			slog.String("plot", p.MetricKey),
			slog.String("entity_id", entityID),
			sl.Err(err),
		)
		sink.WriteRegion(p.RegionID, PanelErrorPlaceholder)
		t.record(ctx, model.UnitPanel, p.RegionID, entityID, model.StatusFailed, start, err)
		return
	}

	sink.WriteRegion(p.RegionID, html)
	t.record(ctx, model.UnitPanel, p.RegionID, entityID, model.StatusOK, start, nil)
}
