package subtitles

import (
	"errors"
	"math"
	"testing"

	"dubber/internal/services"
)

func TestFormatTimecode(t *testing.T) {
	tests := []struct {
		seconds      float64
		includeHours bool
		want         string
	}{
		{0, true, "00:00:00,000"},
		{0, false, "00:00,000"},
		{1.5, false, "00:01,500"},
		{61.042, false, "01:01,042"},
		{3661.25, false, "01:01:01,250"},
		{3599.9995, false, "01:00:00,000"},
		{7322.007, true, "02:02:02,007"},
	}
	for _, tt := range tests {
		got, err := FormatTimecode(tt.seconds, tt.includeHours)
		if err != nil {
			t.Fatalf("FormatTimecode(%f): %v", tt.seconds, err)
		}
		if got != tt.want {
			t.Errorf("FormatTimecode(%f, %v) = %q, want %q", tt.seconds, tt.includeHours, got, tt.want)
		}
	}
}

func TestFormatTimecodeNegative(t *testing.T) {
	if _, err := FormatTimecode(-0.001, true); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseTimecode(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"00:00:00,000", 0},
		{"00:05:46,345", 346.345},
		{"01:01,042", 61.042},
		{"02:02:02,007", 7322.007},
		{"00:00:01.500", 1.5}, // period accepted
	}
	for _, tt := range tests {
		got, err := ParseTimecode(tt.input)
		if err != nil {
			t.Fatalf("ParseTimecode(%q): %v", tt.input, err)
		}
		if math.Abs(got-tt.want) > 0.0005 {
			t.Errorf("ParseTimecode(%q) = %f, want %f", tt.input, got, tt.want)
		}
	}
}

func TestParseTimecodeMalformed(t *testing.T) {
	for _, input := range []string{"", "12", "aa:bb:cc,ddd", "00:99:00,000", "00:00:00", "1:2:3:4,000"} {
		if _, err := ParseTimecode(input); err == nil {
			t.Errorf("ParseTimecode(%q) succeeded, want error", input)
		}
	}
}

func TestTimecodeRoundTrip(t *testing.T) {
	for _, includeHours := range []bool{true, false} {
		for _, seconds := range []float64{0, 0.001, 1.042, 59.999, 60, 3599.999, 3600, 7322.007} {
			encoded, err := FormatTimecode(seconds, includeHours)
			if err != nil {
				t.Fatalf("FormatTimecode(%f): %v", seconds, err)
			}
			decoded, err := ParseTimecode(encoded)
			if err != nil {
				t.Fatalf("ParseTimecode(%q): %v", encoded, err)
			}
			if math.Abs(decoded-seconds) > 0.0005 {
				t.Errorf("round trip %f -> %q -> %f", seconds, encoded, decoded)
			}
		}
	}
}
