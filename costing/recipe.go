package costing

// DefaultConditioning is used when a line carries no usable conditioning.
const DefaultConditioning = 1000

// Line is one ingredient usage in a costing session.
type Line struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	ItemCode       string   `json:"item_code,omitempty"`
	Quantity       float64  `json:"quantity"`
	Unit           string   `json:"unit,omitempty"`
	PricePerUnit   float64  `json:"price_per_unit"`
	Conditioning   float64  `json:"conditioning,omitempty"`
	WastagePercent *float64 `json:"wastage_percent,omitempty"`
	TrueCost       *float64 `json:"true_cost,omitempty"`
	TotalCost      *float64 `json:"total_cost,omitempty"`
}

// LineTotalCost is (quantity / conditioning) * pricePerUnit, or 0 unless all three are positive.
func LineTotalCost(quantity, pricePerUnit, conditioning float64) float64 {
	if pricePerUnit <= 0 || conditioning <= 0 || quantity <= 0 {
		return 0
	}
	return (quantity / conditioning) * pricePerUnit
}

// Cost returns TotalCost when set, otherwise (TrueCost or PricePerUnit) * Quantity.
func (l Line) Cost() float64 {
	if l.TotalCost != nil {
		return *l.TotalCost
	}
	unit := l.PricePerUnit
	if l.TrueCost != nil {
		unit = *l.TrueCost
	}
	return unit * l.Quantity
}

// WithDerivedTotal fills TotalCost from quantity, price and conditioning
// (conditioning falls back to DefaultConditioning).
func (l Line) WithDerivedTotal() Line {
	conditioning := l.Conditioning
	if conditioning <= 0 {
		conditioning = DefaultConditioning
	}
	total := LineTotalCost(l.Quantity, l.PricePerUnit, conditioning)
	l.TotalCost = &total
	return l
}

type Inputs struct {
	Lines                 []Line  `json:"lines"`
	Multiplier            float64 `json:"multiplier"`
	LaborCost             float64 `json:"labor_cost"`
	OverheadPercent       float64 `json:"overhead_percent"`
	TargetFoodCostPercent float64 `json:"target_food_cost_percent"`
	YieldQuantity         float64 `json:"yield_quantity"`
}

type Result struct {
	IngredientCost           float64 `json:"ingredient_cost"`
	ScaledLabor              float64 `json:"scaled_labor"`
	Subtotal                 float64 `json:"subtotal"`
	OverheadCost             float64 `json:"overhead_cost"`
	TotalCost                float64 `json:"total_cost"`
	ScaledYield              float64 `json:"scaled_yield"`
	CostPerPortion           float64 `json:"cost_per_portion"`
	SuggestedPrice           float64 `json:"suggested_price"`
	ActualFoodCostPercent    float64 `json:"actual_food_cost_percent"`
	GrossProfitMarginPercent float64 `json:"gross_profit_margin_percent"`
}

// Compute derives the full breakdown. Negative multipliers count as zero.
func Compute(in Inputs) Result {
	multiplier := in.Multiplier
	if multiplier < 0 {
		multiplier = 0
	}

	var raw float64
	for _, line := range in.Lines {
		raw += line.Cost()
	}

	var r Result
	r.IngredientCost = raw * multiplier
	r.ScaledLabor = in.LaborCost * multiplier
	r.Subtotal = r.IngredientCost + r.ScaledLabor
	r.OverheadCost = r.Subtotal * (in.OverheadPercent / 100)
	r.TotalCost = r.Subtotal + r.OverheadCost
	r.ScaledYield = in.YieldQuantity * multiplier
	if r.ScaledYield > 0 {
		r.CostPerPortion = r.TotalCost / r.ScaledYield
	}
	if in.TargetFoodCostPercent > 0 {
		r.SuggestedPrice = r.CostPerPortion / (in.TargetFoodCostPercent / 100)
	}
	if r.SuggestedPrice > 0 {
		r.ActualFoodCostPercent = r.CostPerPortion / r.SuggestedPrice * 100
		r.GrossProfitMarginPercent = 100 - r.ActualFoodCostPercent
	}
	return r
}
