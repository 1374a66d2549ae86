package model

import (
	"encoding/json"
	"testing"
)

func decodeLatest(t *testing.T, body string) LatestValueResponse {
	t.Helper()
	var resp LatestValueResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	return resp
}

func TestLatestSingleRecord(t *testing.T) {
	resp := decodeLatest(t, `{"temperature": 21.34, "air_humidity": 55, "soil_moisture": 40.05}`)
	if resp.IsMany() {
		t.Fatalf("expected single form")
	}

	rec, ok := resp.Normalize()
	if !ok {
		t.Fatalf("expected a record")
	}
	if rec.Temperature == nil || *rec.Temperature != 21.34 {
		t.Fatalf("unexpected temperature %v", rec.Temperature)
	}
	if rec.AirHumidity == nil || *rec.AirHumidity != 55 {
		t.Fatalf("unexpected air humidity %v", rec.AirHumidity)
	}
	if rec.SoilMoisture == nil || *rec.SoilMoisture != 40.05 {
		t.Fatalf("unexpected soil moisture %v", rec.SoilMoisture)
	}
}

func TestLatestSequenceUsesFirstElement(t *testing.T) {
	resp := decodeLatest(t, `[{"temperature": 1}, {"temperature": 2}]`)
	if !resp.IsMany() || resp.Len() != 2 {
		t.Fatalf("expected sequence of 2, got many=%v len=%d", resp.IsMany(), resp.Len())
	}

	rec, ok := resp.Normalize()
	if !ok {
		t.Fatalf("expected a record")
	}
	if rec.Temperature == nil || *rec.Temperature != 1 {
		t.Fatalf("expected first element, got %v", rec.Temperature)
	}
}

func TestLatestEmptySequenceHasNoRecord(t *testing.T) {
	resp := decodeLatest(t, `[]`)
	if _, ok := resp.Normalize(); ok {
		t.Fatalf("empty sequence must not yield a record")
	}
}

func TestLatestNullAndScalarHaveNoRecord(t *testing.T) {
	for _, body := range []string{`null`, `42`, `"text"`, `true`} {
		resp := decodeLatest(t, body)
		if _, ok := resp.Normalize(); ok {
			t.Fatalf("%s must not yield a record", body)
		}
	}
}

func TestLatestAbsentAndInvalidFields(t *testing.T) {
	resp := decodeLatest(t, `{"temperature": null, "air_humidity": "60.25", "soil_moisture": "wet", "extra": 1}`)
	rec, ok := resp.Normalize()
	if !ok {
		t.Fatalf("expected a record")
	}
	if rec.Temperature != nil {
		t.Fatalf("null temperature must be absent, got %v", *rec.Temperature)
	}
	if rec.AirHumidity == nil || *rec.AirHumidity != 60.25 {
		t.Fatalf("numeric string must parse, got %v", rec.AirHumidity)
	}
	if rec.SoilMoisture != nil {
		t.Fatalf("non-numeric string must be absent, got %v", *rec.SoilMoisture)
	}
}

func TestLatestSequenceWithNonObjectFirstElement(t *testing.T) {
	resp := decodeLatest(t, `[7, {"temperature": 3}]`)
	rec, ok := resp.Normalize()
	if !ok {
		t.Fatalf("a non-empty sequence always yields its first element")
	}
	if rec.Temperature != nil || rec.AirHumidity != nil || rec.SoilMoisture != nil {
		t.Fatalf("scalar first element must carry no fields, got %+v", rec)
	}
}

func TestLatestInvalidJSON(t *testing.T) {
	var resp LatestValueResponse
	if err := json.Unmarshal([]byte(`{"temperature":`), &resp); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestConstructors(t *testing.T) {
	v := 1.5
	if rec, ok := Single(LatestRecord{Temperature: &v}).Normalize(); !ok || *rec.Temperature != 1.5 {
		t.Fatalf("Single must normalize to its record")
	}
	if _, ok := Many().Normalize(); ok {
		t.Fatalf("Many() must be empty")
	}
}
