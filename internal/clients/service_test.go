package clients

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

type fakeRepo struct {
	rows map[uuid.UUID]*Client
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Client)}
}

func (f *fakeRepo) Create(ctx context.Context, c Client) (uuid.UUID, error) {
	if c.NationalID != nil {
		for _, existing := range f.rows {
			if existing.NationalID != nil && *existing.NationalID == *c.NationalID {
				return uuid.Nil, &shared.ConstraintViolation{Constraint: "clients_national_id_key"}
			}
		}
	}
	c.ID = uuid.New()
	f.rows[c.ID] = &c
	return c.ID, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) error {
	c, ok := f.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	if req.FullName != nil {
		c.FullName = *req.FullName
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	return nil
}

func (f *fakeRepo) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var out []Client
	for _, c := range f.rows {
		if req.Search != "" && !strings.Contains(strings.ToLower(c.FullName), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func TestCreateClient(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateClientRequest{FullName: "Amina Haddad"})
	require.NoError(t, err)
	require.Equal(t, "Amina Haddad", created.FullName)
	require.NotEqual(t, uuid.Nil, created.ID)
}

func TestCreateClientRequiresName(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateClientRequest{})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestDuplicateNationalID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()
	nid := "AB123456"

	_, err := svc.Create(ctx, CreateClientRequest{FullName: "First", NationalID: &nid})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateClientRequest{FullName: "Second", NationalID: &nid})
	require.Error(t, err)
	var cv *shared.ConstraintViolation
	require.True(t, errors.As(err, &cv))
	require.Equal(t, "clients_national_id_key", cv.Constraint)
}

func TestUpdateClient(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateClientRequest{FullName: "Before"})
	require.NoError(t, err)

	name := "After"
	updated, err := svc.Update(ctx, created.ID, UpdateClientRequest{FullName: &name})
	require.NoError(t, err)
	require.Equal(t, "After", updated.FullName)
}

func TestSearchClients(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateClientRequest{FullName: "Amina Haddad"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateClientRequest{FullName: "Omar Benali"})
	require.NoError(t, err)

	list, page, err := svc.List(ctx, ListClientsRequest{Search: "amina", PerPage: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, page.Total)
}
