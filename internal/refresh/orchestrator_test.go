package refresh_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/speedwagon-io/plantdash/internal/model"
	"github.com/speedwagon-io/plantdash/internal/page"
	"github.com/speedwagon-io/plantdash/internal/refresh"
)

func newDashboard() (*page.Memory, refresh.Row, refresh.Row) {
	m := page.NewMemory().
		AddRegion("plot-sun", "").
		AddRegion("plot-temp", "").
		AddRegion("plot-soil", "").
		AddRegion("plot-air", "")
	first := m.AddRow("1", "-")
	second := m.AddRow("2", "-")
	return m, first, second
}

func TestRunIsolatesFailures(t *testing.T) {
	b := newBackend(t, map[string]route{
		"/api/plots/sunlight":         ok("<p>sun</p>"),
		"/api/plots/temperature":      ok("<p>temp</p>"),
		"/api/plots/soil":             fail(http.StatusBadGateway),
		"/api/plots/luftfeuchtigkeit": ok("<p>air</p>"),
		"/api/data/latest-value/1":    ok(`{"temperature": 21, "air_humidity": 55.56, "soil_moisture": 30}`),
		"/api/data/latest-value/2":    fail(http.StatusInternalServerError),
		"/api/data/all-today/7":       ok(`[{"temperature": 21}]`),
		"/api/data/sunlight-30days/7": fail(http.StatusInternalServerError),
		"/api/data/average-mtd/7":     ok(`{"temperature": 20}`),
	})

	consumer := &recordingConsumer{}
	observer := &recordingObserver{}
	o := b.orchestrator(refresh.WithRangeConsumer(consumer), refresh.WithObserver(observer))

	m, first, second := newDashboard()
	report := o.Run(context.Background(), m, "7")

	for region, want := range map[string]string{
		"plot-sun":  "<p>sun</p>",
		"plot-temp": "<p>temp</p>",
		"plot-soil": refresh.PanelErrorPlaceholder,
		"plot-air":  "<p>air</p>",
	} {
		if got := m.Region(region); got != want {
			t.Fatalf("%s = %q, want %q", region, got, want)
		}
	}

	if got := cells(m, first); got != [3]string{"21.0", "55.6", "30.0"} {
		t.Fatalf("first row = %v", got)
	}
	if got := cells(m, second); got != [3]string{"N/A", "N/A", "N/A"} {
		t.Fatalf("second row = %v", got)
	}

	// rows use their own pot id, panels and loaders use the page's
	if got := b.Query("/api/plots/soil").Get("pot_id"); got != "7" {
		t.Fatalf("panel pot_id = %q", got)
	}

	consumer.mu.Lock()
	if consumer.calls != 3 {
		t.Fatalf("consumer calls = %d, want 3", consumer.calls)
	}
	if len(consumer.today) != 1 || len(consumer.average) != 1 {
		t.Fatalf("today = %v, average = %v", consumer.today, consumer.average)
	}
	if consumer.sunlight == nil || len(consumer.sunlight) != 0 {
		t.Fatalf("sunlight = %#v, want empty", consumer.sunlight)
	}
	consumer.mu.Unlock()

	if got := report.Total(model.StatusFailed); got != 3 {
		t.Fatalf("failed = %d, want 3", got)
	}
	if got := report.Total(model.StatusOK); got != 6 {
		t.Fatalf("ok = %d, want 6", got)
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if len(observer.outcomes) != 9 {
		t.Fatalf("outcomes = %d, want 9", len(observer.outcomes))
	}
	for _, oc := range observer.outcomes {
		if oc.RunID != report.RunID {
			t.Fatalf("outcome run id %s, want %s", oc.RunID, report.RunID)
		}
		if oc.Status == model.StatusFailed && oc.ErrorKind != model.ErrorKindStatus {
			t.Fatalf("error kind = %q", oc.ErrorKind)
		}
	}
	if len(observer.reports) != 1 || observer.reports[0] != report {
		t.Fatalf("run observer saw %d reports", len(observer.reports))
	}
}

func TestRunWithUnreachableBackend(t *testing.T) {
	b := newBackend(t, nil)
	b.url = "http://127.0.0.1:1"

	consumer := &recordingConsumer{}
	m, first, _ := newDashboard()

	report := b.orchestrator(refresh.WithRangeConsumer(consumer)).Run(context.Background(), m, "1")

	if got := m.Region("plot-temp"); got != refresh.PanelErrorPlaceholder {
		t.Fatalf("plot-temp = %q", got)
	}
	if got := cells(m, first); got != [3]string{"N/A", "N/A", "N/A"} {
		t.Fatalf("first row = %v", got)
	}
	if got := report.Total(model.StatusFailed); got != 9 {
		t.Fatalf("failed = %d, want 9", got)
	}

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	if consumer.calls != 3 || consumer.today == nil || consumer.average == nil {
		t.Fatalf("consumer = %+v", consumer)
	}
}

func TestObserversFanOut(t *testing.T) {
	a, c := &recordingObserver{}, &recordingObserver{}
	var plain int
	obs := refresh.Observers{a, c, refresh.ObserverFunc(func(context.Context, *model.Outcome) { plain++ })}

	obs.Observe(context.Background(), model.NewOutcome("r", model.UnitRow, "0", "1", model.StatusOK, 0))
	obs.ObserveRun(context.Background(), model.NewReport("r", "1"))

	if len(a.outcomes) != 1 || len(c.outcomes) != 1 || plain != 1 {
		t.Fatal("outcome not fanned out")
	}
	if len(a.reports) != 1 || len(c.reports) != 1 {
		t.Fatal("report not fanned out")
	}
}
