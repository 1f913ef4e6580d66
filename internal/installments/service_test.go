package installments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

type fakeRepo struct {
	rows map[uuid.UUID]*Installment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Installment)}
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Installment, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]Installment, error) {
	var out []Installment
	for _, row := range f.rows {
		if row.SaleID == saleID {
			out = append(out, *row)
		}
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].Number < out[i].Number {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) ListDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]Installment, error) {
	var out []Installment
	for _, row := range f.rows {
		if row.Status == StatusPending && row.DueDate.Before(cutoff) {
			out = append(out, *row)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) ApplyPayment(ctx context.Context, id uuid.UUID, newPaid float64, markPaid bool, paidAt time.Time) (int64, error) {
	row, ok := f.rows[id]
	if !ok || row.Status != StatusPending {
		return 0, nil
	}
	row.AmountPaid = newPaid
	if markPaid {
		row.Status = StatusPaid
		row.PaidAt = &paidAt
	}
	return 1, nil
}

func seedRow(f *fakeRepo, saleID uuid.UUID, number int, due float64, dueDate time.Time) *Installment {
	row := &Installment{
		ID:        uuid.New(),
		SaleID:    saleID,
		Number:    number,
		AmountDue: due,
		DueDate:   dueDate,
		Status:    StatusPending,
	}
	f.rows[row.ID] = row
	return row
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordPaymentPartialThenSettle(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	row := seedRow(repo, uuid.New(), 1, 166.67, now.AddDate(0, 1, 0))
	svc := NewService(repo, nil, nil)
	svc.now = fixedClock(now)
	ctx := context.Background()

	inst, err := svc.RecordPayment(ctx, row.ID, 100)
	require.NoError(t, err)
	require.Equal(t, 100.0, inst.AmountPaid)
	require.Equal(t, StatusPending, inst.Status)

	inst, err = svc.RecordPayment(ctx, row.ID, 66.67)
	require.NoError(t, err)
	require.Equal(t, 166.67, inst.AmountPaid)
	require.Equal(t, StatusPaid, inst.Status)
	require.NotNil(t, inst.PaidAt)
}

func TestRecordPaymentNeverExceedsDue(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	row := seedRow(repo, uuid.New(), 1, 250, now.AddDate(0, 1, 0))
	svc := NewService(repo, nil, nil)
	svc.now = fixedClock(now)

	_, err := svc.RecordPayment(context.Background(), row.ID, 250.02)
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
	require.Equal(t, 0.0, repo.rows[row.ID].AmountPaid)
}

type fakeInvalidator struct {
	count int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.count++
	return nil
}

func TestRecordPaymentDropsCachedReports(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	row := seedRow(repo, uuid.New(), 1, 250, now.AddDate(0, 1, 0))
	inv := &fakeInvalidator{}
	svc := NewService(repo, inv, nil)
	svc.now = fixedClock(now)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, row.ID, 50)
	require.NoError(t, err)
	require.Equal(t, 1, inv.count)

	// A rejected payment moves no money and must not invalidate.
	_, err = svc.RecordPayment(ctx, row.ID, 500)
	require.Error(t, err)
	require.Equal(t, 1, inv.count)
}

func TestRecordPaymentOnSettledRowConflicts(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	row := seedRow(repo, uuid.New(), 1, 100, now.AddDate(0, 1, 0))
	svc := NewService(repo, nil, nil)
	svc.now = fixedClock(now)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, row.ID, 100)
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, row.ID, 1)
	require.Error(t, err)
	require.True(t, shared.IsConflict(err))
}

func TestOverdueIsDerivedFromDueDate(t *testing.T) {
	repo := newFakeRepo()
	saleID := uuid.New()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	late := seedRow(repo, saleID, 1, 100, now.AddDate(0, -1, 0))
	seedRow(repo, saleID, 2, 100, now.AddDate(0, 1, 0))
	svc := NewService(repo, nil, nil)
	svc.now = fixedClock(now)

	rows, err := svc.ListBySale(context.Background(), saleID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, StatusOverdue, rows[0].Status)
	require.Equal(t, StatusPending, rows[1].Status)
	// The stored status is untouched.
	require.Equal(t, StatusPending, repo.rows[late.ID].Status)
}

func TestSummarize(t *testing.T) {
	repo := newFakeRepo()
	saleID := uuid.New()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	first := seedRow(repo, saleID, 1, 166.67, now.AddDate(0, -2, 0))
	seedRow(repo, saleID, 2, 166.67, now.AddDate(0, -1, 0))
	seedRow(repo, saleID, 3, 166.66, now.AddDate(0, 1, 0))
	svc := NewService(repo, nil, nil)
	svc.now = fixedClock(now)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, first.ID, 166.67)
	require.NoError(t, err)

	sum, err := svc.Summarize(ctx, saleID)
	require.NoError(t, err)
	require.Equal(t, 500.0, sum.TotalDue)
	require.Equal(t, 166.67, sum.TotalPaid)
	require.Equal(t, 333.33, sum.Outstanding)
	require.Equal(t, 1, sum.PaidCount)
	require.Equal(t, 1, sum.OverdueCount)
	require.Equal(t, 1, sum.PendingCount)
	require.NotNil(t, sum.NextDueDate)
	require.Equal(t, now.AddDate(0, -1, 0), *sum.NextDueDate)
}
