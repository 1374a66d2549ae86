package refresh

import (
	"context"
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/speedwagon-io/plantdash/internal/dashapi"
	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
	"github.com/speedwagon-io/plantdash/internal/model"
)

// RowFallback fills every cell of a row whose latest value could not be fetched.
const RowFallback = "N/A"

// FormatReading renders a reading with exactly one fractional digit. Exact
// ties round away from zero, so 22.25 becomes "22.3".
func FormatReading(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}

	scaled := new(big.Float).SetPrec(256).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, big.NewFloat(10))

	n, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetInt(n))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	digits := n.String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	s := digits[:len(digits)-1] + "." + digits[len(digits)-1:]
	if v < 0 {
		s = "-" + s
	}
	return s
}

// RefreshRows fetches the latest snapshot for every row that carries a pot id.
func (o *Orchestrator) RefreshRows(ctx context.Context, page RowPage) *model.Report {
	t := o.newTracker("")
	o.refreshRows(ctx, t, page)
	return t.finish()
}

func (o *Orchestrator) refreshRows(ctx context.Context, t *tracker, page RowPage) {
	var wg sync.WaitGroup

	for _, row := range page.Rows() {
		if row.EntityID == "" {
			t.record(ctx, model.UnitRow, strconv.Itoa(row.Index), "", model.StatusSkipped, time.Now(), nil)
			continue
		}

		wg.Add(1)
		go func(r Row) {
			defer wg.Done()
			o.refreshRow(ctx, t, page, r)
		}(row)
	}

	wg.Wait()
}

func (o *Orchestrator) refreshRow(ctx context.Context, t *tracker, sink RowSink, row Row) {
	start := time.Now()
	target := strconv.Itoa(row.Index)

	var resp model.LatestValueResponse
	if err := o.api.GetJSON(ctx, dashapi.LatestValuePath(row.EntityID), &resp); err != nil {
		o.log.Error("failed to load latest values",
			slog.String("run_id", t.runID()),
			slog.String("entity_id", row.EntityID),
			sl.Err(err),
		)
		for _, field := range Fields {
			sink.WriteCell(row, field, RowFallback)
		}
		t.record(ctx, model.UnitRow, target, row.EntityID, model.StatusFailed, start, err)
		return
	}

	record, ok := resp.Normalize()
	if !ok {
		o.log.Debug("no latest values for pot",
			slog.String("entity_id", row.EntityID),
		)
		t.record(ctx, model.UnitRow, target, row.EntityID, model.StatusEmpty, start, nil)
		return
	}

	writeReading(sink, row, FieldTemperature, record.Temperature)
	writeReading(sink, row, FieldAirHumidity, record.AirHumidity)
	writeReading(sink, row, FieldSoilMoisture, record.SoilMoisture)

	t.record(ctx, model.UnitRow, target, row.EntityID, model.StatusOK, start, nil)
}

// writeReading leaves the cell untouched when v is absent.
func writeReading(sink RowSink, row Row, field Field, v *float64) {
	if v == nil {
		return
	}
	sink.WriteCell(row, field, FormatReading(*v))
}
