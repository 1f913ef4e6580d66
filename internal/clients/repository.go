package clients

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

// Repository defines data access for clients.
type Repository interface {
	Create(ctx context.Context, c Client) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*Client, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) error
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, c Client) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, full_name, phone, national_id, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		id, c.FullName, c.Phone, c.NationalID, c.Address, c.Notes)
	if err != nil {
		// A duplicate national_id surfaces as ConstraintViolation with
		// the unique constraint's name, never as a message substring.
		return uuid.Nil, shared.MapDBError("clients: create", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, phone, national_id, address, notes, created_at, updated_at
		FROM clients WHERE id = $1`, id)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.MapDBError("clients: get", err)
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) error {
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	if req.FullName != nil {
		query += fmt.Sprintf(", full_name = $%d", argPos)
		args = append(args, *req.FullName)
		argPos++
	}
	if req.Phone != nil {
		query += fmt.Sprintf(", phone = $%d", argPos)
		args = append(args, *req.Phone)
		argPos++
	}
	if req.Address != nil {
		query += fmt.Sprintf(", address = $%d", argPos)
		args = append(args, *req.Address)
		argPos++
	}
	if req.Notes != nil {
		query += fmt.Sprintf(", notes = $%d", argPos)
		args = append(args, *req.Notes)
		argPos++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return shared.MapDBError("clients: update", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	where := ""
	var args []interface{}
	argPos := 1
	if req.Search != "" {
		where = fmt.Sprintf("WHERE full_name ILIKE $%d OR phone ILIKE $%d", argPos, argPos)
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+where, args...).Scan(&total); err != nil {
		return nil, 0, shared.MapDBError("clients: count", err)
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`
		SELECT id, full_name, phone, national_id, address, notes, created_at, updated_at
		FROM clients %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, shared.MapDBError("clients: list", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, shared.MapDBError("clients: scan", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var phone, nationalID, address, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&c.ID, &c.FullName, &phone, &nationalID, &address, &notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	if nationalID.Valid {
		c.NationalID = &nationalID.String
	}
	if address.Valid {
		c.Address = &address.String
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}
