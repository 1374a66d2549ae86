package refresh

import "testing"

func TestFormatReading(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{23.456, "23.5"},
		{23, "23.0"},
		{0, "0.0"},
		{22.25, "22.3"},
		{0.15, "0.1"},
		{-1.25, "-1.3"},
		{-0.04, "-0.0"},
		{99.95, "100.0"},
		{1e-7, "0.0"},
	}

	for _, tt := range tests {
		if got := FormatReading(tt.in); got != tt.want {
			t.Fatalf("FormatReading(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
