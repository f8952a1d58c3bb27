package importer

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestRichShapeDerivesMissingYield(t *testing.T) {
	cells := []string{"ING-001", "Produce", " Onion ", "12.00", "", "", "1000", "100", "", "", ""}
	ing, ok := RichShape.Read(cells)
	if !ok {
		t.Fatalf("expected row to be accepted")
	}
	if ing.BaseUnit != DefaultBaseUnit || ing.Conditioning != DefaultConditioning {
		t.Fatalf("defaults not applied: %+v", ing)
	}
	if ing.Description != "Onion" {
		t.Fatalf("description should be trimmed, got %q", ing.Description)
	}
	if ing.YieldWeight != 900 || !almostEqual(ing.WastagePercent, 10) {
		t.Fatalf("yield not derived: %+v", ing)
	}
	if !almostEqual(ing.TrueCost, 12/0.9) {
		t.Fatalf("true cost = %v, want %v", ing.TrueCost, 12/0.9)
	}
}

func TestRichShapeKeepsSourceValues(t *testing.T) {
	cells := []string{"ING-002", "Dairy", "Butter", "$8.50", "KG", "1", "1000", "100", "850", "15", "10"}
	ing, ok := RichShape.Read(cells)
	if !ok {
		t.Fatalf("expected row to be accepted")
	}
	if ing.PricePerUnit != 8.5 || ing.BaseUnit != "KG" || ing.Conditioning != 1 {
		t.Fatalf("unexpected values: %+v", ing)
	}
	if ing.YieldWeight != 850 || ing.WastagePercent != 15 || ing.TrueCost != 10 {
		t.Fatalf("source values should win over derived ones: %+v", ing)
	}
}

func TestMinimalShape(t *testing.T) {
	cells := []string{"ING-003", "Dry", "Flour", "G", "1000", "ignored", "2,500"}
	ing, ok := MinimalShape.Read(cells)
	if !ok {
		t.Fatalf("expected row to be accepted")
	}
	if ing.PricePerUnit != 2500 || ing.BaseUnit != "G" || ing.Conditioning != 1000 {
		t.Fatalf("unexpected values: %+v", ing)
	}
	if ing.YieldWeight != 0 || ing.WastagePercent != 0 || ing.TrueCost != 0 {
		t.Fatalf("minimal rows carry no yield data: %+v", ing)
	}
}

func TestShapeGuards(t *testing.T) {
	cases := []struct {
		name  string
		cells []string
	}{
		{"too short", []string{"ING-1", "Veg", "Carrot", "1"}},
		{"blank code", []string{"", "Veg", "Carrot", "1", "G", "1000"}},
		{"blank category", []string{"ING-1", " ", "Carrot", "1", "G", "1000"}},
		{"div error", []string{"#DIV/0!", "Veg", "Carrot", "1", "G", "1000"}},
		{"na error", []string{"#N/A", "Veg", "Carrot", "1", "G", "1000"}},
		{"zero category", []string{"ING-1", "0", "Carrot", "1", "G", "1000"}},
	}
	for _, tc := range cases {
		if _, ok := RichShape.Read(tc.cells); ok {
			t.Errorf("%s: expected row to be rejected", tc.name)
		}
	}
}

func TestParseLayout(t *testing.T) {
	if l, err := ParseLayout(""); err != nil || l != LayoutRich {
		t.Fatalf("empty layout should default to rich, got %q %v", l, err)
	}
	if l, err := ParseLayout(" Minimal "); err != nil || l != LayoutMinimal {
		t.Fatalf("expected minimal, got %q %v", l, err)
	}
	if _, err := ParseLayout("wide"); err == nil {
		t.Fatalf("expected error for unknown layout")
	}
}

func TestDedupeLastWins(t *testing.T) {
	rows := []Ingredient{
		{ItemCode: "A", PricePerUnit: 1},
		{ItemCode: "B", PricePerUnit: 2},
		{ItemCode: "A", PricePerUnit: 3},
	}
	got := Dedupe(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].ItemCode != "A" || got[0].PricePerUnit != 3 {
		t.Fatalf("last occurrence should win in first position, got %+v", got[0])
	}
}
