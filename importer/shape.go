// Package importer reads price-list exports (HTML tables and spreadsheet
// workbooks) into normalized ingredient rows.
package importer

import (
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/recipe_backend/costing"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
)

// Field names what a positional cell holds.
type Field int

const (
	FieldSkip Field = iota
	FieldItemCode
	FieldCategoryName
	FieldDescription
	FieldUnitCost
	FieldBaseUnit
	FieldConditioning
	FieldInitialWeight
	FieldWasteWeight
	FieldYieldWeight
	FieldWastagePercent
	FieldTrueCost
)

const (
	DefaultBaseUnit     = "G"
	DefaultConditioning = 1000
)

// RowShape describes one export layout: which field sits at which cell index.
type RowShape struct {
	Name     string
	MinCells int
	Columns  []Field
	// DerivesYield fills yield, wastage and true cost from the weights
	// whenever the export leaves them blank or zero.
	DerivesYield bool
}

// RichShape is the 11-column export carrying yield-test columns.
var RichShape = RowShape{
	Name:     "rich",
	MinCells: 6,
	Columns: []Field{
		FieldItemCode, FieldCategoryName, FieldDescription, FieldUnitCost, FieldBaseUnit, FieldConditioning,
		FieldInitialWeight, FieldWasteWeight, FieldYieldWeight, FieldWastagePercent, FieldTrueCost,
	},
	DerivesYield: true,
}

// MinimalShape is the legacy 7-column export; column 5 is unused and the price comes last.
var MinimalShape = RowShape{
	Name:     "minimal",
	MinCells: 6,
	Columns: []Field{
		FieldItemCode, FieldCategoryName, FieldDescription, FieldBaseUnit, FieldConditioning,
		FieldSkip, FieldUnitCost,
	},
}

// workbookShape reads sheets with the rich columns but accepts short rows.
var workbookShape = RichShape.withMinCells(4)

func (s RowShape) withMinCells(n int) RowShape {
	s.MinCells = n
	return s
}

type Layout string

const (
	LayoutRich    Layout = "rich"
	LayoutMinimal Layout = "minimal"
)

func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutRich:
		return LayoutRich, nil
	case LayoutMinimal:
		return LayoutMinimal, nil
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

// Options tune the HTML reader. Workbooks always use header detection.
type Options struct {
	Layout     Layout
	HeaderRows int
}

func DefaultOptions() Options {
	return Options{Layout: LayoutRich, HeaderRows: 1}
}

// LegacyOptions reads the older 7-column export with two header rows.
func LegacyOptions() Options {
	return Options{Layout: LayoutMinimal, HeaderRows: 2}
}

func (o Options) Shape() RowShape {
	if o.Layout == LayoutMinimal {
		return MinimalShape
	}
	return RichShape
}

func (o Options) headerRows() int {
	if o.HeaderRows < 0 {
		return 0
	}
	return o.HeaderRows
}

// Ingredient is one accepted row, ready to be stored for a user.
type Ingredient struct {
	ItemCode       string  `json:"item_code"`
	CategoryName   string  `json:"category_name"`
	Description    string  `json:"description,omitempty"`
	BaseUnit       string  `json:"base_unit"`
	Conditioning   float64 `json:"conditioning"`
	PricePerUnit   float64 `json:"price_per_unit"`
	InitialWeight  float64 `json:"initial_weight"`
	WasteWeight    float64 `json:"waste_weight"`
	YieldWeight    float64 `json:"yield_weight"`
	WastagePercent float64 `json:"wastage_percent"`
	TrueCost       float64 `json:"true_cost"`
}

// sourceOr keeps an export-provided value and only derives when it is missing.
func sourceOr(source float64, derive func() float64) float64 {
	if source != 0 {
		return source
	}
	return derive()
}

// Read maps one row of cells through the shape. ok is false for rows that
// are too short or fail the export-artifact guards.
func (s RowShape) Read(cells []string) (Ingredient, bool) {
	if len(cells) < s.MinCells {
		return Ingredient{}, false
	}

	text := make(map[Field]string, len(s.Columns))
	for i, f := range s.Columns {
		if f == FieldSkip || i >= len(cells) {
			continue
		}
		text[f] = cells[i]
	}

	itemCode := strings.TrimSpace(text[FieldItemCode])
	categoryName := strings.TrimSpace(text[FieldCategoryName])
	if !acceptable(itemCode, categoryName) {
		return Ingredient{}, false
	}

	ing := Ingredient{
		ItemCode:      itemCode,
		CategoryName:  categoryName,
		Description:   strings.TrimSpace(text[FieldDescription]),
		BaseUnit:      strings.TrimSpace(text[FieldBaseUnit]),
		Conditioning:  utils.ToNumber(text[FieldConditioning]),
		PricePerUnit:  utils.ToNumber(text[FieldUnitCost]),
		InitialWeight: utils.ToNumber(text[FieldInitialWeight]),
		WasteWeight:   utils.ToNumber(text[FieldWasteWeight]),
	}
	if ing.BaseUnit == "" {
		ing.BaseUnit = DefaultBaseUnit
	}
	if ing.Conditioning == 0 {
		ing.Conditioning = DefaultConditioning
	}

	if s.DerivesYield {
		ing.YieldWeight = sourceOr(utils.ToNumber(text[FieldYieldWeight]), func() float64 {
			return costing.YieldWeight(ing.InitialWeight, ing.WasteWeight)
		})
		ing.WastagePercent = sourceOr(utils.ToNumber(text[FieldWastagePercent]), func() float64 {
			return costing.WastagePercent(ing.InitialWeight, ing.WasteWeight)
		})
		ing.TrueCost = sourceOr(utils.ToNumber(text[FieldTrueCost]), func() float64 {
			return costing.TrueCost(ing.PricePerUnit, ing.WastagePercent)
		})
	}
	return ing, true
}

// acceptable rejects blank keys and spreadsheet artifacts (#DIV/0!, #N/A, "0" categories).
func acceptable(itemCode, categoryName string) bool {
	if itemCode == "" || categoryName == "" {
		return false
	}
	if strings.Contains(itemCode, "#DIV") || strings.Contains(itemCode, "#N/A") {
		return false
	}
	return categoryName != "0"
}

// walkRows reads rows[start:] through shape and keeps the accepted ones.
func walkRows(rows [][]string, start int, shape RowShape) []Ingredient {
	out := make([]Ingredient, 0, len(rows))
	for i := start; i < len(rows); i++ {
		if ing, ok := shape.Read(rows[i]); ok {
			out = append(out, ing)
		}
	}
	return out
}
