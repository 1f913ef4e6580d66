package installments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the persisted lifecycle of an installment. Overdue is never
// stored: it is derived from the due date at read time so a row flips to
// overdue the moment the clock passes without any writer involved.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"

	// StatusOverdue only appears as an EffectiveStatus result.
	StatusOverdue Status = "overdue"
)

// Installment is one schedule line of a confirmed installment sale.
type Installment struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	SaleID     uuid.UUID  `json:"sale_id" db:"sale_id"`
	Number     int        `json:"seq_number" db:"seq_number"`
	AmountDue  float64    `json:"amount_due" db:"amount_due"`
	AmountPaid float64    `json:"amount_paid" db:"amount_paid"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	Status     Status     `json:"status" db:"status"`
	PaidAt     *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// EffectiveStatus resolves the derived state at the given instant.
func (i *Installment) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusPaid {
		return StatusPaid
	}
	if i.DueDate.Before(now.Truncate(24 * time.Hour)) {
		return StatusOverdue
	}
	return StatusPending
}

// Remaining returns the unpaid part of this line.
func (i *Installment) Remaining() float64 {
	r := i.AmountDue - i.AmountPaid
	if r < 0 {
		return 0
	}
	return r
}

// Summary aggregates the schedule of one sale.
type Summary struct {
	SaleID       uuid.UUID  `json:"sale_id"`
	TotalDue     float64    `json:"total_due"`
	TotalPaid    float64    `json:"total_paid"`
	Outstanding  float64    `json:"outstanding"`
	PendingCount int        `json:"pending_count"`
	PaidCount    int        `json:"paid_count"`
	OverdueCount int        `json:"overdue_count"`
	NextDueDate  *time.Time `json:"next_due_date,omitempty"`
}
