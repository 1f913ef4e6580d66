package clients

import (
	"time"

	"github.com/google/uuid"
)

// Client is a buyer registered during intake.
type Client struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FullName   string    `json:"full_name" db:"full_name"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	NationalID *string   `json:"national_id,omitempty" db:"national_id"`
	Address    *string   `json:"address,omitempty" db:"address"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
