package installments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Repository is the persistence port for installment tracking. Payment
// application uses the conditional-update discipline: the row must still
// be pending at write time or zero rows come back.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Installment, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]Installment, error)
	// ListDueBefore returns unpaid rows whose due date passed the cutoff.
	ListDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]Installment, error)
	// ApplyPayment sets the new cumulative paid amount on a still-pending
	// row, flipping status when markPaid is set.
	ApplyPayment(ctx context.Context, id uuid.UUID, newPaid float64, markPaid bool, paidAt time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, sale_id, seq_number, amount_due, amount_paid, due_date, status, paid_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Installment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM installment_payments WHERE id = $1`, id)
	inst, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("installments: get", err)
	}
	return inst, nil
}

func (r *repository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM installment_payments
		WHERE sale_id = $1 ORDER BY seq_number`, saleID)
	if err != nil {
		return nil, shared.MapDBError("installments: list by sale", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repository) ListDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM installment_payments
		WHERE status = 'pending' AND due_date < $1
		ORDER BY due_date, seq_number LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, shared.MapDBError("installments: list due", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repository) ApplyPayment(ctx context.Context, id uuid.UUID, newPaid float64, markPaid bool, paidAt time.Time) (int64, error) {
	query := `
		UPDATE installment_payments
		SET amount_paid = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	args := []interface{}{id, newPaid}
	if markPaid {
		query = `
			UPDATE installment_payments
			SET amount_paid = $2, status = 'paid', paid_at = $3, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'`
		args = append(args, paidAt)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, shared.MapDBError("installments: apply payment", err)
	}
	return tag.RowsAffected(), nil
}

func collect(rows pgx.Rows) ([]Installment, error) {
	var out []Installment
	for rows.Next() {
		inst, err := scan(rows)
		if err != nil {
			return nil, shared.MapDBError("installments: scan", err)
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

func scan(row pgx.Row) (*Installment, error) {
	var i Installment
	var paidAt pgtype.Timestamptz
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&i.ID, &i.SaleID, &i.Number, &i.AmountDue, &i.AmountPaid,
		&i.DueDate, &i.Status, &paidAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		i.PaidAt = &paidAt.Time
	}
	i.CreatedAt = createdAt.Time
	i.UpdatedAt = updatedAt.Time
	return &i, nil
}
