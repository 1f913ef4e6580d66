package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleLine is one dated installment of a plan. Amounts are already
// rounded to 2 decimals and ready to persist.
type ScheduleLine struct {
	Number    int       `json:"number"`
	AmountDue float64   `json:"amount_due"`
	DueDate   time.Time `json:"due_date"`
}

// BuildSchedule materializes a plan into dated installment lines. The
// advance is due at signing, so the first line falls one calendar month
// after start. The final line absorbs the rounding remainder: the sum of
// all AmountDue values equals RemainingForInstallments to the cent.
// A plan with no months yields an empty schedule, not an error.
func BuildSchedule(plan Plan, start time.Time) []ScheduleLine {
	if plan.NumberOfMonths <= 0 {
		return nil
	}

	total := decimal.NewFromFloat(plan.RemainingForInstallments).Round(2)
	monthly := decimal.NewFromFloat(plan.MonthlyPayment).Round(2)

	lines := make([]ScheduleLine, 0, plan.NumberOfMonths)
	for i := 1; i <= plan.NumberOfMonths; i++ {
		amount := monthly
		if i == plan.NumberOfMonths {
			paid := monthly.Mul(decimal.NewFromInt(int64(plan.NumberOfMonths - 1)))
			amount = total.Sub(paid)
		}
		due, _ := amount.Float64()
		lines = append(lines, ScheduleLine{
			Number:    i,
			AmountDue: due,
			DueDate:   start.AddDate(0, i, 0),
		})
	}
	return lines
}
