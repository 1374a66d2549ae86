package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Unit string

const (
	UnitPanel    Unit = "panel"
	UnitRow      Unit = "row"
	UnitToday    Unit = "today"
	UnitSunlight Unit = "sunlight"
	UnitAverage  Unit = "average"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	// StatusEmpty is a successful response that carried nothing to render.
	StatusEmpty Status = "empty"
)

const (
	ErrorKindTransport = "transport"
	ErrorKindStatus    = "status"
	ErrorKindDecode    = "decode"
)

// Outcome records how one refresh task ended.
type Outcome struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id"`
	Unit      Unit          `json:"unit"`
	Target    string        `json:"target"`
	EntityID  string        `json:"entity_id"`
	Status    Status        `json:"status"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewOutcome(runID string, unit Unit, target, entityID string, status Status, duration time.Duration) *Outcome {
	return &Outcome{
		ID:        uuid.New().String(),
		RunID:     runID,
		Unit:      unit,
		Target:    target,
		EntityID:  entityID,
		Status:    status,
		Duration:  duration,
		Timestamp: time.Now().UTC(),
	}
}

func (o *Outcome) WithError(kind string, err error) *Outcome {
	o.ErrorKind = kind
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

func (o *Outcome) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}

func NewRunID() string {
	return uuid.New().String()
}
