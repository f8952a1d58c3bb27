// Package costing holds the yield and recipe cost arithmetic. Everything here
// is pure: no I/O, no errors, zero denominators produce 0.
package costing

// WastagePercent is the share of the initial weight lost to trim, in percent.
func WastagePercent(initialWeight, wasteWeight float64) float64 {
	if initialWeight <= 0 {
		return 0
	}
	return (wasteWeight / initialWeight) * 100
}

// YieldWeight never goes below zero, even when more waste than input was recorded.
func YieldWeight(initialWeight, wasteWeight float64) float64 {
	y := initialWeight - wasteWeight
	if y < 0 {
		return 0
	}
	return y
}

// TrueCost is the unit cost per usable unit after waste.
// A wastage of 100% or more leaves unitCost unchanged.
func TrueCost(unitCost, wastagePercent float64) float64 {
	yieldFactor := 1 - wastagePercent/100
	if yieldFactor <= 0 {
		return unitCost
	}
	return unitCost / yieldFactor
}
