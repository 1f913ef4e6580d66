package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ardhi-erp/ardhi/internal/installments"
	"github.com/ardhi-erp/ardhi/internal/sales"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

type fakeRepo struct {
	rows map[uuid.UUID]*Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Notification)}
}

func (f *fakeRepo) Create(ctx context.Context, n Notification) (uuid.UUID, error) {
	n.ID = uuid.New()
	n.Status = StatusQueued
	n.CreatedAt = time.Now()
	f.rows[n.ID] = &n
	return n.ID, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n, ok := f.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeRepo) MarkDelivered(ctx context.Context, id uuid.UUID) (int64, error) {
	n, ok := f.rows[id]
	if !ok || n.Status != StatusQueued {
		return 0, nil
	}
	now := time.Now()
	n.Status = StatusDelivered
	n.DeliveredAt = &now
	return 1, nil
}

func (f *fakeRepo) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	var out []Notification
	for _, n := range f.rows {
		out = append(out, *n)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) HasOverdueNotice(ctx context.Context, installmentID uuid.UUID) (bool, error) {
	for _, n := range f.rows {
		if n.Kind == KindInstallmentOverdue && n.InstallmentID != nil && *n.InstallmentID == installmentID {
			return true, nil
		}
	}
	return false, nil
}

type fakeEnqueuer struct {
	ids  []uuid.UUID
	fail bool
}

func (f *fakeEnqueuer) EnqueueNotificationDispatch(ctx context.Context, id uuid.UUID) error {
	if f.fail {
		return errors.New("queue down")
	}
	f.ids = append(f.ids, id)
	return nil
}

func TestSaleConfirmedQueuesNotification(t *testing.T) {
	repo := newFakeRepo()
	enq := &fakeEnqueuer{}
	svc := NewService(repo, enq, nil)

	evt := sales.ConfirmedEvent{SaleID: uuid.New(), ClientID: uuid.New(), Amount: 1500}
	require.NoError(t, svc.SaleConfirmed(context.Background(), evt))

	require.Len(t, enq.ids, 1)
	n, err := svc.Get(context.Background(), enq.ids[0])
	require.NoError(t, err)
	require.Equal(t, KindSaleConfirmed, n.Kind)
	require.Equal(t, StatusQueued, n.Status)
	require.Equal(t, evt.SaleID, *n.SaleID)
}

func TestEnqueueFailureStillPersists(t *testing.T) {
	repo := newFakeRepo()
	enq := &fakeEnqueuer{fail: true}
	svc := NewService(repo, enq, nil)

	evt := sales.ConfirmedEvent{SaleID: uuid.New(), ClientID: uuid.New(), Amount: 500}
	require.NoError(t, svc.SaleConfirmed(context.Background(), evt))
	require.Len(t, repo.rows, 1)
}

func TestOverdueReminderIsDeduplicated(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEnqueuer{}, nil)
	ctx := context.Background()

	inst := installments.Installment{
		ID:        uuid.New(),
		SaleID:    uuid.New(),
		Number:    3,
		AmountDue: 166.67,
		DueDate:   time.Now().AddDate(0, 0, -10),
	}

	require.NoError(t, svc.InstallmentOverdue(ctx, inst))
	require.NoError(t, svc.InstallmentOverdue(ctx, inst))
	require.Len(t, repo.rows, 1)
}

func TestMarkDeliveredIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	enq := &fakeEnqueuer{}
	svc := NewService(repo, enq, nil)
	ctx := context.Background()

	require.NoError(t, svc.SaleConfirmed(ctx, sales.ConfirmedEvent{SaleID: uuid.New(), ClientID: uuid.New(), Amount: 100}))
	id := enq.ids[0]

	require.NoError(t, svc.MarkDelivered(ctx, id))
	n, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, n.Status)
	require.NotNil(t, n.DeliveredAt)

	// Flipping an already-delivered row changes nothing.
	require.NoError(t, svc.MarkDelivered(ctx, id))
}
