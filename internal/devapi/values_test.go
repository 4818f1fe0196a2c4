package devapi

import (
	"testing"
	"time"

	"estatemetrics/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestPaymentDateClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, day("2023-02-28"), paymentDate(day("2023-02-01"), 31))
	assert.Equal(t, day("2024-02-29"), paymentDate(day("2024-02-01"), 30))
	assert.Equal(t, day("2024-03-01"), paymentDate(day("2024-03-01"), 0))
	assert.Equal(t, day("2024-03-15"), paymentDate(day("2024-03-01"), 15))
}

func TestOccurrences(t *testing.T) {
	regular := models.Transaction{Regularity: models.RegularityRegular, StartDate: "2024-01-20", PaymentDay: 10}

	got := occurrences(regular, day("2024-01-01"), day("2024-04-05"))

	var dates []string
	for _, o := range got {
		dates = append(dates, o.date.Format(time.DateOnly))
	}
	// January's payment day falls before the start date.
	assert.Equal(t, []string{"2024-02-10", "2024-03-10"}, dates)

	oneTime := models.Transaction{Regularity: models.RegularityOneTime, Date: "2024-06-01"}
	assert.Len(t, occurrences(oneTime, day("2024-01-01"), day("2024-12-31")), 1)
	assert.Empty(t, occurrences(oneTime, day("2024-07-01"), day("2024-12-31")))
	assert.Empty(t, occurrences(models.Transaction{Regularity: models.RegularityOneTime, Date: "bad"}, time.Time{}, day("2030-01-01")))
}

func TestValuesRangeDefaults(t *testing.T) {
	now := day("2024-06-15")

	from, to := valuesRange(models.ValuesFilter{}, now)
	assert.Equal(t, day("2023-07-01"), from)
	assert.Equal(t, day("2024-06-30"), to)

	from, to = valuesRange(models.ValuesFilter{DateStart: "2024-01-01", DateEnd: "2024-02-15"}, now)
	assert.Equal(t, day("2024-01-01"), from)
	assert.Equal(t, day("2024-02-15"), to)
}

func TestChartEmptyRange(t *testing.T) {
	data := chart(nil, day("2024-05-01"), day("2024-04-01"))
	assert.Empty(t, data.Categories)
	assert.NotNil(t, data.Categories)
}
