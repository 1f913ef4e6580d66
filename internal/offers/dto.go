package offers

import (
	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/pricing"
)

type CreateOfferRequest struct {
	BatchID      uuid.UUID           `json:"batch_id" validate:"required"`
	PieceID      *uuid.UUID          `json:"piece_id,omitempty"`
	Name         string              `json:"name" validate:"required,max=200"`
	PricePerM2   float64             `json:"price_per_m2_installment" validate:"required,gt=0"`
	AdvanceMode  pricing.AdvanceMode `json:"advance_mode" validate:"required,oneof=fixed percent"`
	AdvanceValue float64             `json:"advance_value" validate:"gte=0"`
	CalcMode     pricing.CalcMode    `json:"calc_mode" validate:"required,oneof=months monthly_amount"`
	CalcValue    float64             `json:"calc_value" validate:"required,gt=0"`
}
