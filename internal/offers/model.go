package offers

import (
	"time"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/pricing"
)

// Offer is a named pricing/amortization template attachable to a batch
// or, in the piece-specific variant, to one piece. The engine never
// reads an offer after confirmation: its terms are snapshotted into the
// sale row, so later edits cannot rewrite historical schedules.
type Offer struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	BatchID      uuid.UUID           `json:"batch_id" db:"batch_id"`
	PieceID      *uuid.UUID          `json:"piece_id,omitempty" db:"piece_id"`
	Name         string              `json:"name" db:"name"`
	PricePerM2   float64             `json:"price_per_m2_installment" db:"price_per_m2_installment"`
	AdvanceMode  pricing.AdvanceMode `json:"advance_mode" db:"advance_mode"`
	AdvanceValue float64             `json:"advance_value" db:"advance_value"`
	CalcMode     pricing.CalcMode    `json:"calc_mode" db:"calc_mode"`
	CalcValue    float64             `json:"calc_value" db:"calc_value"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// Terms returns the immutable pricing snapshot of the offer.
func (o *Offer) Terms() pricing.OfferTerms {
	return pricing.OfferTerms{
		PricePerM2:   o.PricePerM2,
		AdvanceMode:  o.AdvanceMode,
		AdvanceValue: o.AdvanceValue,
		CalcMode:     o.CalcMode,
		CalcValue:    o.CalcValue,
	}
}
