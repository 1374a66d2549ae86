package model

import "time"

// Report summarises one page refresh.
type Report struct {
	RunID    string                  `json:"run_id"`
	EntityID string                  `json:"entity_id"`
	Started  time.Time               `json:"started"`
	Duration time.Duration           `json:"duration"`
	Counts   map[Unit]map[Status]int `json:"counts"`
}

func NewReport(runID, entityID string) *Report {
	return &Report{
		RunID:    runID,
		EntityID: entityID,
		Started:  time.Now().UTC(),
		Counts:   make(map[Unit]map[Status]int),
	}
}

func (r *Report) Add(unit Unit, status Status) {
	byStatus, ok := r.Counts[unit]
	if !ok {
		byStatus = make(map[Status]int)
		r.Counts[unit] = byStatus
	}
	byStatus[status]++
}

func (r *Report) Count(unit Unit, status Status) int {
	return r.Counts[unit][status]
}

// Total sums one status across units.
func (r *Report) Total(status Status) int {
	total := 0
	for _, byStatus := range r.Counts {
		total += byStatus[status]
	}
	return total
}
