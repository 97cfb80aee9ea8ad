package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	// Unsorted on purpose.
	values := []float64{100, 10, 90, 20, 80, 30, 70, 40, 60, 50}
	d := ComputeDistribution(values)

	if math.Abs(d.Mean-55) > 0.001 {
		t.Errorf("mean = %v, want 55", d.Mean)
	}
	// Population std of 10..100 step 10.
	if math.Abs(d.Std-math.Sqrt(825)) > 0.001 {
		t.Errorf("std = %v, want %v", d.Std, math.Sqrt(825))
	}
	if math.Abs(d.P10-19) > 0.01 {
		t.Errorf("p10 = %v, want 19", d.P10)
	}
	if math.Abs(d.P50-55) > 0.01 {
		t.Errorf("p50 = %v, want 55", d.P50)
	}
	if math.Abs(d.P90-91) > 0.01 {
		t.Errorf("p90 = %v, want 91", d.P90)
	}

	if values[0] != 100 {
		t.Error("ComputeDistribution must not reorder its input")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	if d := ComputeDistribution(nil); d != (Distribution{}) {
		t.Errorf("empty input should return zero distribution, got %+v", d)
	}
}
