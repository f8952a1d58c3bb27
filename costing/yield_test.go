package costing

import (
	"math"
	"testing"
)

func TestWastagePercent(t *testing.T) {
	cases := []struct {
		initial, waste, want float64
	}{
		{1000, 200, 20},
		{1000, 0, 0},
		{1000, 1000, 100},
		{0, 50, 0},
		{-10, 5, 0},
	}
	for _, tc := range cases {
		if got := WastagePercent(tc.initial, tc.waste); got != tc.want {
			t.Errorf("WastagePercent(%v, %v) = %v, want %v", tc.initial, tc.waste, got, tc.want)
		}
	}
}

func TestWastagePercentStaysInRange(t *testing.T) {
	for initial := 1.0; initial <= 2000; initial += 137 {
		for waste := 0.0; waste <= initial; waste += initial / 7 {
			p := WastagePercent(initial, waste)
			if p < 0 || p > 100 {
				t.Fatalf("WastagePercent(%v, %v) = %v out of [0,100]", initial, waste, p)
			}
			if y := YieldWeight(initial, waste); math.Abs(y-(initial-waste)) > 1e-9 {
				t.Fatalf("YieldWeight(%v, %v) = %v", initial, waste, y)
			}
		}
	}
}

func TestYieldWeightNeverNegative(t *testing.T) {
	if got := YieldWeight(100, 250); got != 0 {
		t.Fatalf("YieldWeight(100, 250) = %v, want 0", got)
	}
	if got := YieldWeight(0, 0); got != 0 {
		t.Fatalf("YieldWeight(0, 0) = %v, want 0", got)
	}
}

func TestTrueCost(t *testing.T) {
	cases := []struct {
		name          string
		unit, wastage float64
		want          float64
	}{
		{"no wastage", 12.5, 0, 12.5},
		{"half wastage", 10, 50, 20},
		{"total wastage falls back", 10, 100, 10},
		{"over wastage falls back", 10, 150, 10},
		{"twenty percent", 8, 20, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrueCost(tc.unit, tc.wastage)
			if math.IsInf(got, 0) || math.IsNaN(got) {
				t.Fatalf("TrueCost(%v, %v) is not finite", tc.unit, tc.wastage)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("TrueCost(%v, %v) = %v, want %v", tc.unit, tc.wastage, got, tc.want)
			}
		})
	}
}
