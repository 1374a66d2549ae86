package health

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
	"github.com/speedwagon-io/plantdash/internal/model"
	"github.com/speedwagon-io/plantdash/internal/page"
	"github.com/speedwagon-io/plantdash/internal/refresh"
)

// DashboardHandler serves the page template refreshed for the requested pot.
type DashboardHandler struct {
	log       *slog.Logger
	orch      *refresh.Orchestrator
	template  []byte
	opts      page.Options
	defaultID string
}

func NewDashboardHandler(log *slog.Logger, orch *refresh.Orchestrator, template []byte, opts page.Options, defaultID string) *DashboardHandler {
	return &DashboardHandler{
		log:       log,
		orch:      orch,
		template:  template,
		opts:      opts,
		defaultID: defaultID,
	}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc, err := page.Parse(bytes.NewReader(h.template), h.opts)
	if err != nil {
		h.log.Error("failed to parse page template", sl.Err(err))
		http.Error(w, "page template unavailable", http.StatusInternalServerError)
		return
	}

	entityID := refresh.ResolveEntityIDOr(r.URL.Query(), h.defaultID)
	report := h.orch.Run(r.Context(), doc, entityID)

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		h.log.Error("failed to render page", slog.String("run_id", report.RunID), sl.Err(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Refresh-Run-Id", report.RunID)
	if failed := report.Total(model.StatusFailed); failed > 0 {
		w.Header().Set("X-Refresh-Failed", strconv.Itoa(failed))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
