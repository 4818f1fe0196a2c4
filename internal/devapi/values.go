package devapi

import (
	"time"

	"estatemetrics/internal/domain/models"
)

const (
	monthLayout = "2006-01"
	// scheduleHorizon bounds how far regular payments are projected when no
	// end date is given.
	scheduleHorizon = 12
)

type occurrence struct {
	tx   models.Transaction
	date time.Time
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, s)
	return t, err == nil
}

// occurrences expands tx into dated payments within [from, to]. One-time
// payments occur once; regular ones monthly on their payment day.
func occurrences(tx models.Transaction, from, to time.Time) []occurrence {
	if tx.Regularity == models.RegularityOneTime {
		d, ok := parseDate(tx.Date)
		if !ok || d.Before(from) || d.After(to) {
			return nil
		}
		return []occurrence{{tx: tx, date: d}}
	}

	start, ok := parseDate(tx.StartDate)
	if !ok {
		return nil
	}

	var out []occurrence
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		d := paymentDate(m, tx.PaymentDay)
		if d.Before(start) || d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, occurrence{tx: tx, date: d})
	}
	return out
}

// paymentDate clamps day to the length of month.
func paymentDate(month time.Time, day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := month.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC)
}

// valuesRange resolves the chart window. Missing bounds default to the
// twelve months ending with the current one.
func valuesRange(filter models.ValuesFilter, now time.Time) (time.Time, time.Time) {
	to, ok := parseDate(filter.DateEnd)
	if !ok {
		to = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	}
	from, ok := parseDate(filter.DateStart)
	if !ok {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1-scheduleHorizon, 0)
	}
	return from, to
}

// chart buckets the transactions by month between from and to.
func chart(txs []models.Transaction, from, to time.Time) models.ChartData {
	var categories []string
	index := map[string]int{}
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		index[m.Format(monthLayout)] = len(categories)
		categories = append(categories, m.Format(monthLayout))
	}

	n := len(categories)
	data := models.ChartData{
		Categories: categories,
		Series: models.ChartSeries{
			Income:            make([]float64, n),
			Expense:           make([]float64, n),
			Balance:           make([]float64, n),
			CumulativeBalance: make([]float64, n),
		},
	}
	if n == 0 {
		data.Categories = []string{}
		return data
	}

	for _, tx := range txs {
		for _, o := range occurrences(tx, from, to) {
			i := index[o.date.Format(monthLayout)]
			if tx.Direction == models.DirectionIncome {
				data.Series.Income[i] += tx.Amount
				data.Totals.TotalIncome += tx.Amount
			} else {
				data.Series.Expense[i] += tx.Amount
				data.Totals.TotalExpense += tx.Amount
			}
		}
	}

	var running float64
	for i := range categories {
		data.Series.Balance[i] = data.Series.Income[i] - data.Series.Expense[i]
		running += data.Series.Balance[i]
		data.Series.CumulativeBalance[i] = running
	}
	data.Totals.NetBalance = data.Totals.TotalIncome - data.Totals.TotalExpense

	return data
}
