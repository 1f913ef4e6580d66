package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Repository answers the aggregate queries behind the report views.
type Repository interface {
	BatchName(ctx context.Context, batchID uuid.UUID) (string, error)
	ListBatchIDs(ctx context.Context) ([]uuid.UUID, error)
	PieceCounts(ctx context.Context, batchID uuid.UUID) (PieceCounts, error)
	SalesTotals(ctx context.Context, batchID uuid.UUID) (SalesTotals, error)
	InstallmentTotals(ctx context.Context, batchID uuid.UUID) (InstallmentTotals, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) BatchName(ctx context.Context, batchID uuid.UUID) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM batches WHERE id = $1`, batchID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", shared.MapDBError("reports: batch name", err)
	}
	return name, nil
}

func (r *repository) ListBatchIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM batches ORDER BY created_at`)
	if err != nil {
		return nil, shared.MapDBError("reports: list batches", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, shared.MapDBError("reports: scan batch id", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repository) PieceCounts(ctx context.Context, batchID uuid.UUID) (PieceCounts, error) {
	var c PieceCounts
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'reserved'),
			COUNT(*) FILTER (WHERE status = 'sold')
		FROM land_pieces WHERE batch_id = $1`, batchID).
		Scan(&c.Total, &c.Available, &c.Reserved, &c.Sold)
	if err != nil {
		return PieceCounts{}, shared.MapDBError("reports: piece counts", err)
	}
	return c, nil
}

func (r *repository) SalesTotals(ctx context.Context, batchID uuid.UUID) (SalesTotals, error) {
	var t SalesTotals
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(sale_price), 0),
			COALESCE(SUM(deposit_amount), 0),
			COALESCE(SUM(partial_payment_amount), 0),
			COALESCE(SUM(company_fee_amount), 0),
			COALESCE(SUM(sale_price - deposit_amount)
				FILTER (WHERE payment_method = 'full' AND status = 'completed'), 0),
			COALESCE(SUM(sale_price - deposit_amount)
				FILTER (WHERE payment_method = 'installment' AND status = 'completed'), 0)
		FROM sales WHERE batch_id = $1`, batchID).
		Scan(&t.Count, &t.CompletedCount, &t.PendingCount, &t.TotalValue,
			&t.TotalDeposits, &t.TotalPartials, &t.TotalFees,
			&t.FullCompletedValue, &t.InstallmentCompletedValue)
	if err != nil {
		return SalesTotals{}, shared.MapDBError("reports: sales totals", err)
	}
	return t, nil
}

func (r *repository) InstallmentTotals(ctx context.Context, batchID uuid.UUID) (InstallmentTotals, error) {
	var t InstallmentTotals
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(ip.amount_due), 0),
			COALESCE(SUM(ip.amount_paid), 0),
			COUNT(*) FILTER (WHERE ip.status = 'pending' AND ip.due_date < CURRENT_DATE),
			COALESCE(SUM(ip.amount_due - ip.amount_paid)
				FILTER (WHERE ip.status = 'pending' AND ip.due_date < CURRENT_DATE), 0)
		FROM installment_payments ip
		JOIN sales s ON s.id = ip.sale_id
		WHERE s.batch_id = $1`, batchID).
		Scan(&t.TotalDue, &t.TotalPaid, &t.OverdueCount, &t.OverdueAmount)
	if err != nil {
		return InstallmentTotals{}, shared.MapDBError("reports: installment totals", err)
	}
	return t, nil
}
