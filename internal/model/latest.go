package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LatestRecord is one latest-snapshot reading of a pot. Nil fields were not
// present in the response.
type LatestRecord struct {
	Temperature  *float64
	AirHumidity  *float64
	SoilMoisture *float64
}

const (
	keyTemperature  = "temperature"
	keyAirHumidity  = "air_humidity"
	keySoilMoisture = "soil_moisture"
)

// LatestValueResponse is what /api/data/latest-value/{id} returns: either a
// single record or a sequence of records.
type LatestValueResponse struct {
	many   bool
	single LatestRecord
	seq    []LatestRecord
	// false when the single form held no record at all (null or a scalar)
	hasSingle bool
}

func Single(r LatestRecord) LatestValueResponse {
	return LatestValueResponse{single: r, hasSingle: true}
}

func Many(records ...LatestRecord) LatestValueResponse {
	if records == nil {
		records = []LatestRecord{}
	}
	return LatestValueResponse{many: true, seq: records}
}

func (r LatestValueResponse) IsMany() bool {
	return r.many
}

func (r LatestValueResponse) Len() int {
	if r.many {
		return len(r.seq)
	}
	if r.hasSingle {
		return 1
	}
	return 0
}

// Normalize picks the record to render: the single record, or the first
// element of a sequence. An empty sequence or a null body yields false.
func (r LatestValueResponse) Normalize() (LatestRecord, bool) {
	if r.many {
		if len(r.seq) == 0 {
			return LatestRecord{}, false
		}
		return r.seq[0], true
	}
	return r.single, r.hasSingle
}

func (r *LatestValueResponse) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode latest value: %w", err)
	}

	switch val := raw.(type) {
	case []any:
		seq := make([]LatestRecord, 0, len(val))
		for _, item := range val {
			obj, _ := item.(map[string]any)
			seq = append(seq, recordFromMap(obj))
		}
		*r = Many(seq...)
	case map[string]any:
		*r = Single(recordFromMap(val))
	default:
		*r = LatestValueResponse{}
	}

	return nil
}

func recordFromMap(m map[string]any) LatestRecord {
	return LatestRecord{
		Temperature:  toFloat(m[keyTemperature]),
		AirHumidity:  toFloat(m[keyAirHumidity]),
		SoilMoisture: toFloat(m[keySoilMoisture]),
	}
}

// toFloat accepts JSON numbers and numeric strings. Anything else is absent.
func toFloat(v any) *float64 {
	var (
		f   float64
		err error
	)

	switch val := v.(type) {
	case json.Number:
		f, err = val.Float64()
	case float64:
		f = val
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return nil
	}

	if err != nil {
		return nil
	}
	return &f
}
