package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification.
type Kind string

const (
	KindSaleConfirmed      Kind = "sale_confirmed"
	KindInstallmentOverdue Kind = "installment_overdue"
)

// Status is the delivery lifecycle. Rows are queued on creation and
// flipped by the worker once the dispatch task ran.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusDelivered Status = "delivered"
)

// Notification is a persisted outbound message. Delivery is best-effort
// and never feeds back into the business operation that produced it.
type Notification struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Kind          Kind       `json:"kind" db:"kind"`
	ClientID      *uuid.UUID `json:"client_id,omitempty" db:"client_id"`
	SaleID        *uuid.UUID `json:"sale_id,omitempty" db:"sale_id"`
	InstallmentID *uuid.UUID `json:"installment_id,omitempty" db:"installment_id"`
	Message       string     `json:"message" db:"message"`
	Status        Status     `json:"status" db:"status"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
