package page

import (
	"sync"

	"github.com/speedwagon-io/plantdash/internal/refresh"
)

// Memory is an in-memory page: regions and rows without any markup.
type Memory struct {
	mu      sync.Mutex
	regions map[string]string
	rows    []refresh.Row
	cells   map[int]map[refresh.Field]string
	writes  int
}

func NewMemory() *Memory {
	return &Memory{
		regions: make(map[string]string),
		cells:   make(map[int]map[refresh.Field]string),
	}
}

func (m *Memory) AddRegion(regionID, content string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions[regionID] = content
	return m
}

// AddRow appends a row whose three cells start with initial.
func (m *Memory) AddRow(entityID, initial string) refresh.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := refresh.Row{Index: len(m.rows), EntityID: entityID}
	m.rows = append(m.rows, row)

	cells := make(map[refresh.Field]string, len(refresh.Fields))
	for _, f := range refresh.Fields {
		cells[f] = initial
	}
	m.cells[row.Index] = cells

	return row
}

func (m *Memory) HasRegion(regionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.regions[regionID]
	return ok
}

func (m *Memory) WriteRegion(regionID, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[regionID]; !ok {
		return
	}
	m.regions[regionID] = content
	m.writes++
}

func (m *Memory) Rows() []refresh.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]refresh.Row, len(m.rows))
	copy(out, m.rows)
	return out
}

func (m *Memory) WriteCell(row refresh.Row, field refresh.Field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cells, ok := m.cells[row.Index]
	if !ok {
		return
	}
	if _, ok := cells[field]; !ok {
		return
	}
	cells[field] = value
	m.writes++
}

func (m *Memory) Region(regionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regions[regionID]
}

func (m *Memory) Cell(row refresh.Row, field refresh.Field) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cells[row.Index][field]
}

// Writes counts every successful region or cell write.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
