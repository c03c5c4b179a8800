package models

// Summary aggregates stock and sales figures for the dashboard and the
// profit/loss report.
type Summary struct {
	UnitsInStock int64
	UnitsSold    int64
	Revenue      float64
	Profit       float64
	Loss         float64
	LowStock     []Product
}

// NetProfit is Profit minus Loss.
func (s Summary) NetProfit() float64 {
	return s.Profit - s.Loss
}
