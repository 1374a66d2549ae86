package refresh

// Field names one value cell of a row.
type Field string

const (
	FieldTemperature  Field = "temperature"
	FieldAirHumidity  Field = "airHumidity"
	FieldSoilMoisture Field = "soilMoisture"
)

var Fields = []Field{FieldTemperature, FieldAirHumidity, FieldSoilMoisture}

// Row is one discovered table row. Index addresses the row inside the page,
// EntityID is empty when the row carries no pot id.
type Row struct {
	Index    int
	EntityID string
}

type PanelSink interface {
	HasRegion(regionID string) bool
	WriteRegion(regionID, content string)
}

// RowSink ignores writes to cells the row does not have.
type RowSink interface {
	WriteCell(row Row, field Field, value string)
}

type RowRegistry interface {
	Rows() []Row
}

type RowPage interface {
	RowRegistry
	RowSink
}

// Page is everything one refresh run writes into.
type Page interface {
	PanelSink
	RowPage
}
