package utils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToNumber(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"currency", "$12.50", 12.5},
		{"div error token", "#DIV/0!", 0},
		{"na token", "#N/A", 0},
		{"empty", "", 0},
		{"blank", "   ", 0},
		{"nil", nil, 0},
		{"thousands", "1,234.5", 1234.5},
		{"local currency", "MMK -20,000", -20000},
		{"negative", "-3.25", -3.25},
		{"only dash", "-", 0},
		{"trailing garbage", "12.5-3", 12.5},
		{"two dots", "1.2.3", 1.2},
		{"leading dot", ".5", 0.5},
		{"int", 42, 42},
		{"float", 7.75, 7.75},
		{"bytes", []byte(" 9 "), 9},
		{"json number", json.Number("3.5"), 3.5},
		{"decimal", decimal.RequireFromString("19.25"), 19.25},
		{"infinity text", "Infinity", 0},
		{"nan float", math.NaN(), 0},
		{"inf float", math.Inf(1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToNumber(tc.in)
			if got != tc.want {
				t.Fatalf("ToNumber(%#v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestToDecimal(t *testing.T) {
	got := ToDecimal("Ks 1,000.25")
	if !got.Equal(decimal.RequireFromString("1000.25")) {
		t.Fatalf("ToDecimal = %s, want 1000.25", got)
	}
	if !ToDecimal("#N/A").IsZero() {
		t.Fatalf("ToDecimal(#N/A) should be zero")
	}
}
