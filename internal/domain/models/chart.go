package models

type ValuesFilter struct {
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
}

type ChartSeries struct {
	Income            []float64 `json:"income"`
	Expense           []float64 `json:"expense"`
	Balance           []float64 `json:"balance"`
	CumulativeBalance []float64 `json:"cumulativeBalance"`
}

type ChartTotals struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	NetBalance   float64 `json:"netBalance"`
}

type ChartData struct {
	Categories []string    `json:"categories"`
	Series     ChartSeries `json:"series"`
	Totals     ChartTotals `json:"totals"`
}
