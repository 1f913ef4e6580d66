package offers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Repository defines data access for payment offers.
type Repository interface {
	Create(ctx context.Context, o Offer) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*Offer, error)
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]Offer, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, o Offer) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_offers (id, batch_id, piece_id, name, price_per_m2_installment,
			advance_mode, advance_value, calc_mode, calc_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		id, o.BatchID, o.PieceID, o.Name, o.PricePerM2,
		o.AdvanceMode, o.AdvanceValue, o.CalcMode, o.CalcValue)
	if err != nil {
		return uuid.Nil, shared.MapDBError("offers: create", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Offer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, batch_id, piece_id, name, price_per_m2_installment,
		       advance_mode, advance_value, calc_mode, calc_value, created_at, updated_at
		FROM payment_offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("offers: get", err)
	}
	return o, nil
}

func (r *repository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, piece_id, name, price_per_m2_installment,
		       advance_mode, advance_value, calc_mode, calc_value, created_at, updated_at
		FROM payment_offers WHERE batch_id = $1 ORDER BY created_at DESC`, batchID)
	if err != nil {
		return nil, shared.MapDBError("offers: list", err)
	}
	defer rows.Close()

	var out []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, shared.MapDBError("offers: scan", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer
	var pieceID pgtype.UUID
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&o.ID, &o.BatchID, &pieceID, &o.Name, &o.PricePerM2,
		&o.AdvanceMode, &o.AdvanceValue, &o.CalcMode, &o.CalcValue, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if pieceID.Valid {
		id := uuid.UUID(pieceID.Bytes)
		o.PieceID = &id
	}
	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time
	return &o, nil
}
