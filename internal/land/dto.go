package land

import "github.com/google/uuid"

type CreateBatchRequest struct {
	Name                  string   `json:"name" validate:"required,max=200"`
	PricePerM2Cash        *float64 `json:"price_per_m2_cash,omitempty" validate:"omitempty,gt=0"`
	PricePerM2Installment *float64 `json:"price_per_m2_installment,omitempty" validate:"omitempty,gt=0"`
	Notes                 *string  `json:"notes,omitempty"`
}

type CreatePieceRequest struct {
	BatchID     uuid.UUID `json:"batch_id" validate:"required"`
	Number      string    `json:"number" validate:"required,max=50"`
	SurfaceM2   float64   `json:"surface_m2" validate:"required,gt=0"`
	DirectPrice *float64  `json:"direct_price,omitempty" validate:"omitempty,gt=0"`
	Notes       *string   `json:"notes,omitempty"`
}

type ListPiecesRequest struct {
	BatchID *uuid.UUID   `json:"batch_id,omitempty"`
	Status  *PieceStatus `json:"status,omitempty"`
	Search  string       `json:"search,omitempty"`
	Page    int          `json:"page" validate:"gte=0"`
	PerPage int          `json:"per_page" validate:"gte=0,lte=200"`
}

// QuoteResponse prices a piece against its batch defaults, with an
// optional deposit already collected.
type QuoteResponse struct {
	PieceID               uuid.UUID `json:"piece_id"`
	Total                 float64   `json:"total"`
	Deposit               float64   `json:"deposit"`
	RemainingAfterDeposit float64   `json:"remaining_after_deposit"`
	Unpriced              bool      `json:"unpriced"`
}
