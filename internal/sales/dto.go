package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/pricing"
)

type CreateSaleRequest struct {
	ClientID       uuid.UUID     `json:"client_id" validate:"required"`
	PieceID        uuid.UUID     `json:"piece_id" validate:"required"`
	SalePrice      *float64      `json:"sale_price,omitempty" validate:"omitempty,gt=0"`
	DepositAmount  float64       `json:"deposit_amount" validate:"gte=0"`
	PaymentMethod  PaymentMethod `json:"payment_method" validate:"required,oneof=full installment promise"`
	PaymentOfferID *uuid.UUID    `json:"payment_offer_id,omitempty"`
	DeadlineDate   *time.Time    `json:"deadline_date,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
	SoldBy         *string       `json:"sold_by,omitempty" validate:"omitempty,max=100"`
}

type ListSalesRequest struct {
	ClientID *uuid.UUID     `json:"client_id,omitempty"`
	BatchID  *uuid.UUID     `json:"batch_id,omitempty"`
	Status   *Status        `json:"status,omitempty"`
	Method   *PaymentMethod `json:"method,omitempty"`
	Page     int            `json:"page" validate:"gte=0"`
	PerPage  int            `json:"per_page" validate:"gte=0,lte=200"`
}

// ConfirmInput carries everything the confirmation dialog submits.
type ConfirmInput struct {
	ConfirmedBy    string  `json:"confirmed_by" validate:"required,max=100"`
	ContractWriter *string `json:"contract_writer,omitempty" validate:"omitempty,max=200"`
	Notes          *string `json:"notes,omitempty"`
	CompanyFee     float64 `json:"company_fee" validate:"gte=0"`
	// InstallmentStart is required for installment sales; the advance is
	// due at signing and installments begin one month after this date.
	InstallmentStart *time.Time `json:"installment_start,omitempty"`
	// PaymentAmount is the tranche collected now on a promise sale.
	PaymentAmount *float64 `json:"payment_amount,omitempty" validate:"omitempty,gt=0"`
}

// ConfirmResult reports the outcome of a confirmation call.
type ConfirmResult struct {
	Sale               *Sale                  `json:"sale"`
	ConfirmationAmount float64                `json:"confirmation_amount"`
	PaidNow            float64                `json:"paid_now"`
	RemainingAfter     float64                `json:"remaining_after"`
	PartialPayment     bool                   `json:"partial_payment"`
	Schedule           []pricing.ScheduleLine `json:"schedule,omitempty"`
}

// GroupConfirmInput confirms a set of sales sharing one client
// interaction with a single aggregate payment and commission.
type GroupConfirmInput struct {
	SaleIDs          []uuid.UUID `json:"sale_ids" validate:"required,min=2"`
	ConfirmedBy      string      `json:"confirmed_by" validate:"required,max=100"`
	ContractWriter   *string     `json:"contract_writer,omitempty" validate:"omitempty,max=200"`
	Notes            *string     `json:"notes,omitempty"`
	TotalCompanyFee  float64     `json:"total_company_fee" validate:"gte=0"`
	TotalPayment     *float64    `json:"total_payment,omitempty" validate:"omitempty,gt=0"`
	InstallmentStart *time.Time  `json:"installment_start,omitempty"`
}

// GroupConfirmResult aggregates per-sale outcomes of a group operation.
type GroupConfirmResult struct {
	Results        []ConfirmResult `json:"results"`
	TotalPaidNow   float64         `json:"total_paid_now"`
	TotalRemaining float64         `json:"total_remaining"`
	Completed      bool            `json:"completed"`
}
