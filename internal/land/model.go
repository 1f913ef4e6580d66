package land

import (
	"time"

	"github.com/google/uuid"
)

// PieceStatus tracks the lifecycle of a land piece. A piece moves to
// Sold exactly once, at sale confirmation, and never reverts
// automatically.
type PieceStatus string

const (
	PieceAvailable PieceStatus = "available"
	PieceReserved  PieceStatus = "reserved"
	PieceSold      PieceStatus = "sold"
)

// Batch groups pieces offered under shared default pricing.
type Batch struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name"`
	PricePerM2Cash        *float64  `json:"price_per_m2_cash,omitempty" db:"price_per_m2_cash"`
	PricePerM2Installment *float64  `json:"price_per_m2_installment,omitempty" db:"price_per_m2_installment"`
	Notes                 *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// Piece is a single land parcel. Number is human-assigned and unique
// only within its batch.
type Piece struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	BatchID     uuid.UUID   `json:"batch_id" db:"batch_id"`
	Number      string      `json:"number" db:"piece_number"`
	SurfaceM2   float64     `json:"surface_m2" db:"surface_m2"`
	DirectPrice *float64    `json:"direct_price,omitempty" db:"direct_price"`
	Status      PieceStatus `json:"status" db:"status"`
	Notes       *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Sellable reports whether a sale may be opened against the piece.
func (p *Piece) Sellable() bool {
	return p.Status == PieceAvailable || p.Status == PieceReserved
}
