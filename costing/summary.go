package costing

type WastageStatus string

const (
	WastageGood     WastageStatus = "Good"
	WastageModerate WastageStatus = "Moderate"
	WastageHigh     WastageStatus = "High"
)

type WastageReport struct {
	AveragePercent   float64       `json:"average_percent"`
	ThresholdPercent float64       `json:"threshold_percent"`
	Status           WastageStatus `json:"status"`
	Count            int           `json:"count"`
}

// WastageSummary averages the given wastage percents and grades the average:
// above threshold is High, above 60% of it is Moderate.
func WastageSummary(values []float64, threshold float64) WastageReport {
	report := WastageReport{ThresholdPercent: threshold, Status: WastageGood, Count: len(values)}
	if len(values) == 0 {
		return report
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	report.AveragePercent = sum / float64(len(values))
	switch {
	case report.AveragePercent > threshold:
		report.Status = WastageHigh
	case report.AveragePercent > threshold*0.6:
		report.Status = WastageModerate
	}
	return report
}

type CostShare struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// Breakdown splits a result's total into ingredient, labor and overhead shares.
func Breakdown(r Result) []CostShare {
	shares := []CostShare{
		{Name: "Ingredients", Amount: r.IngredientCost},
		{Name: "Labor", Amount: r.ScaledLabor},
		{Name: "Overhead", Amount: r.OverheadCost},
	}
	if r.TotalCost > 0 {
		for i := range shares {
			shares[i].Percent = shares[i].Amount / r.TotalCost * 100
		}
	}
	return shares
}
