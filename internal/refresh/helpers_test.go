package refresh_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/speedwagon-io/plantdash/internal/dashapi"
	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
	"github.com/speedwagon-io/plantdash/internal/model"
	"github.com/speedwagon-io/plantdash/internal/refresh"
)

type route struct {
	status int
	body   string
}

func ok(body string) route { return route{status: http.StatusOK, body: body} }

func fail(status int) route { return route{status: status, body: "error"} }

// backend is a fake dashboard API keyed by request path. Unknown paths 404.
type backend struct {
	mu      sync.Mutex
	routes  map[string]route
	hits    map[string]int
	queries map[string]url.Values
	url     string
}

func newBackend(t *testing.T, routes map[string]route) *backend {
	t.Helper()

	b := &backend{
		routes:  routes,
		hits:    make(map[string]int),
		queries: make(map[string]url.Values),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		b.queries[r.URL.Path] = r.URL.Query()
		rt, found := b.routes[r.URL.Path]
		b.mu.Unlock()

		if !found {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(rt.status)
		w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)
	b.url = srv.URL

	return b
}

func (b *backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *backend) Query(path string) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[path]
}

func (b *backend) orchestrator(opts ...refresh.Option) *refresh.Orchestrator {
	log := sl.Discard()
	return refresh.New(log, dashapi.NewClient(log, b.url, 0, ""), opts...)
}

type recordingConsumer struct {
	mu       sync.Mutex
	calls    int
	today    refresh.Series
	sunlight refresh.Series
	average  refresh.Average
}

func (c *recordingConsumer) Today(_ string, data refresh.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.today = data
}

func (c *recordingConsumer) Sunlight(_ string, data refresh.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.sunlight = data
}

func (c *recordingConsumer) Average(_ string, data refresh.Average) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.average = data
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []*model.Outcome
	reports  []*model.Report
}

func (o *recordingObserver) Observe(_ context.Context, outcome *model.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObserveRun(_ context.Context, report *model.Report) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, report)
}
