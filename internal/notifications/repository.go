package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

type Repository interface {
	Create(ctx context.Context, n Notification) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]Notification, error)
	// HasOverdueNotice prevents duplicate reminders for one installment.
	HasOverdueNotice(ctx context.Context, installmentID uuid.UUID) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, kind, client_id, sale_id, installment_id, message, status, delivered_at, created_at`

func (r *repository) Create(ctx context.Context, n Notification) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, kind, client_id, sale_id, installment_id, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		id, n.Kind, n.ClientID, n.SaleID, n.InstallmentID, n.Message, StatusQueued)
	if err != nil {
		return uuid.Nil, shared.MapDBError("notifications: create", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM notifications WHERE id = $1`, id)
	n, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("notifications: get", err)
	}
	return n, nil
}

func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET status = 'delivered', delivered_at = NOW()
		WHERE id = $1 AND status = 'queued'`, id)
	if err != nil {
		return 0, shared.MapDBError("notifications: mark delivered", err)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM notifications ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, shared.MapDBError("notifications: list", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, shared.MapDBError("notifications: scan", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *repository) HasOverdueNotice(ctx context.Context, installmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE installment_id = $1 AND kind = $2
		)`, installmentID, KindInstallmentOverdue).Scan(&exists)
	if err != nil {
		return false, shared.MapDBError("notifications: overdue notice check", err)
	}
	return exists, nil
}

func scan(row pgx.Row) (*Notification, error) {
	var n Notification
	var clientID, saleID, installmentID pgtype.UUID
	var deliveredAt, createdAt pgtype.Timestamptz

	err := row.Scan(&n.ID, &n.Kind, &clientID, &saleID, &installmentID,
		&n.Message, &n.Status, &deliveredAt, &createdAt)
	if err != nil {
		return nil, err
	}
	if clientID.Valid {
		id := uuid.UUID(clientID.Bytes)
		n.ClientID = &id
	}
	if saleID.Valid {
		id := uuid.UUID(saleID.Bytes)
		n.SaleID = &id
	}
	if installmentID.Valid {
		id := uuid.UUID(installmentID.Bytes)
		n.InstallmentID = &id
	}
	if deliveredAt.Valid {
		n.DeliveredAt = &deliveredAt.Time
	}
	n.CreatedAt = createdAt.Time
	return &n, nil
}
