package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardhi-erp/ardhi/internal/platform/db"
	"github.com/ardhi-erp/ardhi/internal/pricing"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Repository is the persistence port of the confirmation engine. The
// conditional update scoped by expected prior status is the correctness
// mechanism for the single-confirmation guarantee: a concurrent session
// that already flipped the status makes this update affect zero rows.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, s Sale) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error)
	ConditionalUpdate(ctx context.Context, id uuid.UUID, expected Status, patch SalePatch) (int64, error)
	// MarkPieceSold flips the linked piece to sold unless it already is.
	MarkPieceSold(ctx context.Context, pieceID uuid.UUID) (int64, error)
	PieceSnapshot(ctx context.Context, pieceID uuid.UUID) (*PieceSnapshot, error)
	InsertInstallments(ctx context.Context, rows []InstallmentRow) error
	OfferTerms(ctx context.Context, offerID uuid.UUID) (*pricing.OfferTerms, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const saleColumns = `id, client_id, piece_id, batch_id, sale_price, deposit_amount,
	payment_method, payment_offer_id, partial_payment_amount, remaining_payment_amount,
	company_fee_amount, status, deadline_date, notes, contract_writer, confirmed_by,
	sold_by, offer_snapshot, created_at, updated_at`

func (r *repository) Create(ctx context.Context, s Sale) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Exec(ctx, `
		INSERT INTO sales (id, client_id, piece_id, batch_id, sale_price, deposit_amount,
			payment_method, payment_offer_id, partial_payment_amount, company_fee_amount,
			status, deadline_date, notes, sold_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, $9, $10, $11, $12, NOW(), NOW())`,
		id, s.ClientID, s.PieceID, s.BatchID, s.SalePrice, s.DepositAmount,
		s.PaymentMethod, s.PaymentOfferID, StatusPending, s.DeadlineDate, s.Notes, s.SoldBy)
	if err != nil {
		return uuid.Nil, shared.MapDBError("sales: create", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Sale, error) {
	row := r.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("sales: get", err)
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
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
	if req.Method != nil {
		conditions = append(conditions, fmt.Sprintf("payment_method = $%d", argPos))
		args = append(args, *req.Method)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sales "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, shared.MapDBError("sales: count", err)
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf("SELECT %s FROM sales %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		saleColumns, whereClause, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, shared.MapDBError("sales: list", err)
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, shared.MapDBError("sales: scan", err)
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

func (r *repository) ConditionalUpdate(ctx context.Context, id uuid.UUID, expected Status, patch SalePatch) (int64, error) {
	query := "UPDATE sales SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	add := func(col string, v interface{}) {
		query += fmt.Sprintf(", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.PartialPaymentAmount != nil {
		add("partial_payment_amount", *patch.PartialPaymentAmount)
	}
	if patch.RemainingPaymentAmount != nil {
		add("remaining_payment_amount", *patch.RemainingPaymentAmount)
	}
	if patch.CompanyFeeAmount != nil {
		add("company_fee_amount", *patch.CompanyFeeAmount)
	}
	if patch.ContractWriter != nil {
		add("contract_writer", *patch.ContractWriter)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.ConfirmedBy != nil {
		add("confirmed_by", *patch.ConfirmedBy)
	}
	if patch.OfferSnapshot != nil {
		data, err := json.Marshal(patch.OfferSnapshot)
		if err != nil {
			return 0, fmt.Errorf("sales: marshal offer snapshot: %w", err)
		}
		add("offer_snapshot", data)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND status = $%d", argPos, argPos+1)
	args = append(args, id, expected)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, shared.MapDBError("sales: conditional update", err)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) MarkPieceSold(ctx context.Context, pieceID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE land_pieces SET status = 'sold', updated_at = NOW()
		WHERE id = $1 AND status <> 'sold'`, pieceID)
	if err != nil {
		return 0, shared.MapDBError("sales: mark piece sold", err)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) PieceSnapshot(ctx context.Context, pieceID uuid.UUID) (*PieceSnapshot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, batch_id, piece_number, surface_m2, status
		FROM land_pieces WHERE id = $1`, pieceID)
	var p PieceSnapshot
	if err := row.Scan(&p.ID, &p.BatchID, &p.Number, &p.SurfaceM2, &p.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("sales: piece snapshot", err)
	}
	return &p, nil
}

func (r *repository) InsertInstallments(ctx context.Context, rows []InstallmentRow) error {
	for _, row := range rows {
		_, err := r.db.Exec(ctx, `
			INSERT INTO installment_payments (id, sale_id, seq_number, amount_due, amount_paid, due_date, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 0, $5, 'pending', NOW(), NOW())`,
			uuid.New(), row.SaleID, row.Number, row.AmountDue, row.DueDate)
		if err != nil {
			return shared.MapDBError("sales: insert installment", err)
		}
	}
	return nil
}

func (r *repository) OfferTerms(ctx context.Context, offerID uuid.UUID) (*pricing.OfferTerms, error) {
	row := r.db.QueryRow(ctx, `
		SELECT price_per_m2_installment, advance_mode, advance_value, calc_mode, calc_value
		FROM payment_offers WHERE id = $1`, offerID)
	var t pricing.OfferTerms
	if err := row.Scan(&t.PricePerM2, &t.AdvanceMode, &t.AdvanceValue, &t.CalcMode, &t.CalcValue); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("sales: offer terms", err)
	}
	return &t, nil
}

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	var offerID pgtype.UUID
	var remaining pgtype.Float8
	var deadline pgtype.Date
	var notes, contractWriter, confirmedBy, soldBy pgtype.Text
	var snapshot []byte
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&s.ID, &s.ClientID, &s.PieceID, &s.BatchID, &s.SalePrice, &s.DepositAmount,
		&s.PaymentMethod, &offerID, &s.PartialPaymentAmount, &remaining,
		&s.CompanyFeeAmount, &s.Status, &deadline, &notes, &contractWriter, &confirmedBy,
		&soldBy, &snapshot, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if offerID.Valid {
		id := uuid.UUID(offerID.Bytes)
		s.PaymentOfferID = &id
	}
	if remaining.Valid {
		s.RemainingPaymentAmount = &remaining.Float64
	}
	if deadline.Valid {
		s.DeadlineDate = &deadline.Time
	}
	if notes.Valid {
		s.Notes = &notes.String
	}
	if contractWriter.Valid {
		s.ContractWriter = &contractWriter.String
	}
	if confirmedBy.Valid {
		s.ConfirmedBy = &confirmedBy.String
	}
	if soldBy.Valid {
		s.SoldBy = &soldBy.String
	}
	if len(snapshot) > 0 {
		var terms pricing.OfferTerms
		if err := json.Unmarshal(snapshot, &terms); err == nil {
			s.OfferSnapshot = &terms
		}
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return &s, nil
}
