package reports

import (
	"github.com/google/uuid"
)

// PieceCounts breaks the inventory of a batch down by status.
type PieceCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Sold      int `json:"sold"`
}

// SalesTotals aggregates the sale rows of a batch. The two *Value fields
// carry price-minus-deposit sums for completed sales of that method;
// together with deposits, partials and schedule payments they let the
// service reconstruct collected vs outstanding without per-sale math.
type SalesTotals struct {
	Count                     int     `json:"count"`
	CompletedCount            int     `json:"completed_count"`
	PendingCount              int     `json:"pending_count"`
	TotalValue                float64 `json:"total_value"`
	TotalDeposits             float64 `json:"total_deposits"`
	TotalPartials             float64 `json:"total_partials"`
	TotalFees                 float64 `json:"total_fees"`
	FullCompletedValue        float64 `json:"full_completed_value"`
	InstallmentCompletedValue float64 `json:"installment_completed_value"`
}

// InstallmentTotals aggregates the materialized schedules of a batch.
type InstallmentTotals struct {
	TotalDue      float64 `json:"total_due"`
	TotalPaid     float64 `json:"total_paid"`
	OverdueCount  int     `json:"overdue_count"`
	OverdueAmount float64 `json:"overdue_amount"`
}

// BatchReport is the financial position of one land batch.
type BatchReport struct {
	BatchID          uuid.UUID         `json:"batch_id"`
	BatchName        string            `json:"batch_name"`
	Pieces           PieceCounts       `json:"pieces"`
	Sales            SalesTotals       `json:"sales"`
	Installments     InstallmentTotals `json:"installments"`
	TotalCollected   float64           `json:"total_collected"`
	TotalOutstanding float64           `json:"total_outstanding"`
	Formatted        FormattedTotals   `json:"formatted"`
}

// FormattedTotals carries locale-grouped display strings for the money
// fields so API consumers render them as-is.
type FormattedTotals struct {
	TotalValue       string `json:"total_value"`
	TotalCollected   string `json:"total_collected"`
	TotalOutstanding string `json:"total_outstanding"`
	OverdueAmount    string `json:"overdue_amount"`
}

// SummaryReport aggregates every batch.
type SummaryReport struct {
	Batches          []BatchReport `json:"batches"`
	TotalValue       float64       `json:"total_value"`
	TotalCollected   float64       `json:"total_collected"`
	TotalOutstanding float64       `json:"total_outstanding"`
}
