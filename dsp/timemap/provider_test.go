package timemap

import (
	"errors"
	"testing"
)

func TestNewStepProviderValidation(t *testing.T) {
	tests := []struct {
		name   string
		starts []int64
		speeds []float64
	}{
		{name: "empty", starts: nil, speeds: nil},
		{name: "length mismatch", starts: []int64{0, 100}, speeds: []float64{1}},
		{name: "nonzero start", starts: []int64{100}, speeds: []float64{1}},
		{name: "not increasing", starts: []int64{0, 200, 200}, speeds: []float64{1, 2, 3}},
		{name: "zero speed", starts: []int64{0, 100}, speeds: []float64{1, 0}},
		{name: "negative speed", starts: []int64{0}, speeds: []float64{-1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStepProvider(tt.starts, tt.speeds); !errors.Is(err, ErrInvalidSpeedSchedule) {
				t.Fatalf("err = %v, want ErrInvalidSpeedSchedule", err)
			}
		})
	}
}

func TestStepProviderLookup(t *testing.T) {
	p, err := NewStepProvider([]int64{0, 500_000, 2_000_000}, []float64{1, 2, 0.5})
	if err != nil {
		t.Fatalf("NewStepProvider() error: %v", err)
	}

	tests := []struct {
		timeUs    int64
		wantSpeed float64
	}{
		{timeUs: 0, wantSpeed: 1},
		{timeUs: 499_999, wantSpeed: 1},
		{timeUs: 500_000, wantSpeed: 2},
		{timeUs: 1_999_999, wantSpeed: 2},
		{timeUs: 2_000_000, wantSpeed: 0.5},
		{timeUs: 10_000_000, wantSpeed: 0.5},
	}
	for _, tt := range tests {
		if got := p.SpeedAt(tt.timeUs); got != tt.wantSpeed {
			t.Fatalf("SpeedAt(%d) = %v, want %v", tt.timeUs, got, tt.wantSpeed)
		}
	}

	if next, ok := p.NextSpeedChangeTimeUs(0); !ok || next != 500_000 {
		t.Fatalf("NextSpeedChangeTimeUs(0) = %d, %v, want 500000, true", next, ok)
	}
	if next, ok := p.NextSpeedChangeTimeUs(500_000); !ok || next != 2_000_000 {
		t.Fatalf("NextSpeedChangeTimeUs(500ms) = %d, %v, want 2000000, true", next, ok)
	}
	if _, ok := p.NextSpeedChangeTimeUs(2_000_000); ok {
		t.Fatal("NextSpeedChangeTimeUs past the last step must report ok=false")
	}
}
