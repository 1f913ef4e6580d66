package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/pricing"
)

// PaymentMethod describes how a sale is collected.
type PaymentMethod string

const (
	MethodFull        PaymentMethod = "full"
	MethodInstallment PaymentMethod = "installment"
	// MethodPromise is a sale collected in two or more tranches, with
	// partial/remaining tracked until fully paid.
	MethodPromise PaymentMethod = "promise"
)

// Status is the sale lifecycle. "Partially paid" is not a persisted
// status: it is pending with PartialPaymentAmount > 0 on a promise sale.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Sale is the central transactional entity.
type Sale struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	ClientID      uuid.UUID     `json:"client_id" db:"client_id"`
	PieceID       uuid.UUID     `json:"piece_id" db:"piece_id"`
	BatchID       uuid.UUID     `json:"batch_id" db:"batch_id"`
	SalePrice     float64       `json:"sale_price" db:"sale_price"`
	DepositAmount float64       `json:"deposit_amount" db:"deposit_amount"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	// PaymentOfferID is required iff the method is installment.
	PaymentOfferID *uuid.UUID `json:"payment_offer_id,omitempty" db:"payment_offer_id"`
	// PartialPaymentAmount / RemainingPaymentAmount track multi-tranche
	// collection on promise sales. Remaining is nil until the first
	// tranche is recorded.
	PartialPaymentAmount   float64  `json:"partial_payment_amount" db:"partial_payment_amount"`
	RemainingPaymentAmount *float64 `json:"remaining_payment_amount,omitempty" db:"remaining_payment_amount"`
	// CompanyFeeAmount is write-once: the value recorded with the first
	// confirmation call survives later tranches.
	CompanyFeeAmount float64    `json:"company_fee_amount" db:"company_fee_amount"`
	Status           Status     `json:"status" db:"status"`
	DeadlineDate     *time.Time `json:"deadline_date,omitempty" db:"deadline_date"`
	Notes            *string    `json:"notes,omitempty" db:"notes"`
	ContractWriter   *string    `json:"contract_writer,omitempty" db:"contract_writer"`
	ConfirmedBy      *string    `json:"confirmed_by,omitempty" db:"confirmed_by"`
	SoldBy           *string    `json:"sold_by,omitempty" db:"sold_by"`
	// OfferSnapshot freezes the offer terms used at confirmation so
	// later offer edits cannot change the historical schedule.
	OfferSnapshot *pricing.OfferTerms `json:"offer_snapshot,omitempty" db:"offer_snapshot"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// PartiallyPaid reports the promise sub-state of pending.
func (s *Sale) PartiallyPaid() bool {
	return s.Status == StatusPending && s.PaymentMethod == MethodPromise && s.PartialPaymentAmount > 0
}

// Outstanding returns the amount still due at confirmation time for a
// promise sale: the tracked remaining if a tranche was already recorded,
// otherwise price minus deposit minus whatever partial exists.
func (s *Sale) Outstanding() float64 {
	if s.RemainingPaymentAmount != nil {
		return *s.RemainingPaymentAmount
	}
	return s.SalePrice - s.DepositAmount - s.PartialPaymentAmount
}

// PieceSnapshot is the slice of a land piece the engine needs: surface
// for plan and group splitting, status for pre-checks.
type PieceSnapshot struct {
	ID        uuid.UUID
	BatchID   uuid.UUID
	Number    string
	SurfaceM2 float64
	Status    string
}

// InstallmentRow is one schedule line to persist at confirmation.
type InstallmentRow struct {
	SaleID    uuid.UUID
	Number    int
	AmountDue float64
	DueDate   time.Time
}

// SalePatch is the field set a conditional update may write. Nil fields
// are left untouched.
type SalePatch struct {
	Status                 *Status
	PartialPaymentAmount   *float64
	RemainingPaymentAmount *float64
	CompanyFeeAmount       *float64
	ContractWriter         *string
	Notes                  *string
	ConfirmedBy            *string
	OfferSnapshot          *pricing.OfferTerms
}
