package audioadc

import (
	"math"
	"testing"
)

func TestPeak(t *testing.T) {
	bufs := [][]float64{
		{0.1, -0.7, 0.2},
		{0.5, 0.0},
	}
	if got := Peak(bufs); got != 0.7 {
		t.Fatalf("Peak = %v, want 0.7", got)
	}
	if got := Peak(nil); got != 0 {
		t.Fatalf("Peak(nil) = %v", got)
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		peak float64
		want uint16
	}{
		{0, 0},
		{-0.5, 0},
		{math.NaN(), 0},
		{0.5, 511},
		{1, 1023},
		{3.2, 1023},
	}

	for _, test := range tests {
		if got := Scale(test.peak); got != test.want {
			t.Errorf("Scale(%v) = %d, want %d", test.peak, got, test.want)
		}
	}
}
