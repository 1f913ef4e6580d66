package land

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Repository defines data access for batches and pieces.
type Repository interface {
	CreateBatch(ctx context.Context, b Batch) (uuid.UUID, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error)
	ListBatches(ctx context.Context) ([]Batch, error)
	CreatePiece(ctx context.Context, p Piece) (uuid.UUID, error)
	GetPiece(ctx context.Context, id uuid.UUID) (*Piece, error)
	ListPieces(ctx context.Context, req ListPiecesRequest) ([]Piece, int, error)
	// TransitionPieceStatus updates status only when the current status
	// matches from, returning the number of rows affected. Zero rows
	// means a concurrent session won the race.
	TransitionPieceStatus(ctx context.Context, id uuid.UUID, from, to PieceStatus) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CreateBatch(ctx context.Context, b Batch) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO batches (id, name, price_per_m2_cash, price_per_m2_installment, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		id, b.Name, b.PricePerM2Cash, b.PricePerM2Installment, b.Notes)
	if err != nil {
		return uuid.Nil, shared.MapDBError("land: create batch", err)
	}
	return id, nil
}

func (r *repository) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, price_per_m2_cash, price_per_m2_installment, notes, created_at, updated_at
		FROM batches WHERE id = $1`, id)
	var b Batch
	var notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&b.ID, &b.Name, &b.PricePerM2Cash, &b.PricePerM2Installment, &notes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("land: get batch", err)
	}
	if notes.Valid {
		b.Notes = &notes.String
	}
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time
	return &b, nil
}

func (r *repository) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price_per_m2_cash, price_per_m2_installment, notes, created_at, updated_at
		FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, shared.MapDBError("land: list batches", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var notes pgtype.Text
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&b.ID, &b.Name, &b.PricePerM2Cash, &b.PricePerM2Installment, &notes, &createdAt, &updatedAt); err != nil {
			return nil, shared.MapDBError("land: scan batch", err)
		}
		if notes.Valid {
			b.Notes = &notes.String
		}
		b.CreatedAt = createdAt.Time
		b.UpdatedAt = updatedAt.Time
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (r *repository) CreatePiece(ctx context.Context, p Piece) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO land_pieces (id, batch_id, piece_number, surface_m2, direct_price, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		id, p.BatchID, p.Number, p.SurfaceM2, p.DirectPrice, PieceAvailable, p.Notes)
	if err != nil {
		return uuid.Nil, shared.MapDBError("land: create piece", err)
	}
	return id, nil
}

func (r *repository) GetPiece(ctx context.Context, id uuid.UUID) (*Piece, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, batch_id, piece_number, surface_m2, direct_price, status, notes, created_at, updated_at
		FROM land_pieces WHERE id = $1`, id)
	p, err := scanPiece(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("land: get piece", err)
	}
	return p, nil
}

func (r *repository) ListPieces(ctx context.Context, req ListPiecesRequest) ([]Piece, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.BatchID != nil {
		conditions = append(conditions, fmt.Sprintf("batch_id = $%d", argPos))
		args = append(args, *req.BatchID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("piece_number ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM land_pieces %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, shared.MapDBError("land: count pieces", err)
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`
		SELECT id, batch_id, piece_number, surface_m2, direct_price, status, notes, created_at, updated_at
		FROM land_pieces %s
		ORDER BY piece_number, id
		LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, shared.MapDBError("land: list pieces", err)
	}
	defer rows.Close()

	var pieces []Piece
	for rows.Next() {
		p, err := scanPiece(rows)
		if err != nil {
			return nil, 0, shared.MapDBError("land: scan piece", err)
		}
		pieces = append(pieces, *p)
	}
	return pieces, total, rows.Err()
}

func (r *repository) TransitionPieceStatus(ctx context.Context, id uuid.UUID, from, to PieceStatus) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE land_pieces SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return 0, shared.MapDBError("land: transition piece", err)
	}
	return tag.RowsAffected(), nil
}

func scanPiece(row pgx.Row) (*Piece, error) {
	var p Piece
	var notes pgtype.Text
	var directPrice pgtype.Float8
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&p.ID, &p.BatchID, &p.Number, &p.SurfaceM2, &directPrice, &p.Status, &notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if directPrice.Valid {
		p.DirectPrice = &directPrice.Float64
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}
