package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
)

type fakeChecker struct {
	name    string
	status  Status
	message string
}

func (c fakeChecker) Name() string { return c.name }

func (c fakeChecker) Check(context.Context) (Status, string) { return c.status, c.message }

func getHealth(t *testing.T, s *Server) (int, HealthResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return rec.Code, resp
}

func TestHealthAggregation(t *testing.T) {
	s := NewServer(sl.Discard(), ":0")

	code, resp := getHealth(t, s)
	if code != http.StatusOK || resp.Status != StatusHealthy {
		t.Fatalf("empty server = %d %s", code, resp.Status)
	}

	s.AddChecker(fakeChecker{name: "a", status: StatusHealthy})
	s.AddChecker(fakeChecker{name: "b", status: StatusDegraded, message: "slow"})
	code, resp = getHealth(t, s)
	if code != http.StatusOK || resp.Status != StatusDegraded {
		t.Fatalf("degraded server = %d %s", code, resp.Status)
	}
	if len(resp.Components) != 2 || resp.Components[1].Message != "slow" {
		t.Fatalf("components = %+v", resp.Components)
	}

	s.AddChecker(fakeChecker{name: "c", status: StatusUnhealthy})
	code, resp = getHealth(t, s)
	if code != http.StatusServiceUnavailable || resp.Status != StatusUnhealthy {
		t.Fatalf("unhealthy server = %d %s", code, resp.Status)
	}
}

func TestProbesAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "plantdash_test_total", Help: "test"})
	reg.MustRegister(runs)
	runs.Inc()

	srv := httptest.NewServer(NewServer(sl.Discard(), ":0", WithGatherer(reg)).Handler())
	defer srv.Close()

	for _, path := range []string{"/ready", "/live"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s = %d", path, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "plantdash_test_total 1") {
		t.Fatalf("metrics body = %s", body)
	}

	resp, err = http.Get(srv.URL + "/dashboard")
	if err != nil {
		t.Fatalf("GET /dashboard: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unmounted dashboard = %d, want 404", resp.StatusCode)
	}
}

func TestUpstreamHealthChecker(t *testing.T) {
	c := NewUpstreamHealthChecker(func(context.Context) error { return nil })
	if status, _ := c.Check(context.Background()); status != StatusHealthy {
		t.Fatalf("status = %s", status)
	}

	c = NewUpstreamHealthChecker(func(context.Context) error { return errors.New("server unhealthy: status 502") })
	status, msg := c.Check(context.Background())
	if status != StatusDegraded || msg == "" {
		t.Fatalf("status = %s %q", status, msg)
	}
}

func TestJournalHealthChecker(t *testing.T) {
	var since time.Time
	count := int64(3)
	c := NewJournalHealthChecker(func(_ context.Context, s time.Time) (int64, error) {
		since = s
		return count, nil
	}, 5)

	if status, _ := c.Check(context.Background()); status != StatusHealthy {
		t.Fatalf("status = %s", status)
	}
	if d := time.Since(since); d < 59*time.Minute || d > 61*time.Minute {
		t.Fatalf("window start %s ago, want about an hour", d)
	}

	count = 6
	if status, _ := c.Check(context.Background()); status != StatusDegraded {
		t.Fatalf("status = %s, want degraded", status)
	}

	c = NewJournalHealthChecker(func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("database is locked")
	}, 5)
	if status, _ := c.Check(context.Background()); status != StatusUnhealthy {
		t.Fatalf("status = %s, want unhealthy", status)
	}
}
