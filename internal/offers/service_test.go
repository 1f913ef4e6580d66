package offers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ardhi-erp/ardhi/internal/pricing"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

type fakeRepo struct {
	rows map[uuid.UUID]*Offer
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Offer)}
}

func (f *fakeRepo) Create(ctx context.Context, o Offer) (uuid.UUID, error) {
	o.ID = uuid.New()
	f.rows[o.ID] = &o
	return o.ID, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Offer, error) {
	o, ok := f.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]Offer, error) {
	var out []Offer
	for _, o := range f.rows {
		if o.BatchID == batchID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func TestCreateOffer(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateOfferRequest{
		BatchID:      uuid.New(),
		Name:         "24 months, 20% down",
		PricePerM2:   60,
		AdvanceMode:  pricing.AdvancePercent,
		AdvanceValue: 20,
		CalcMode:     pricing.CalcMonths,
		CalcValue:    24,
	})
	require.NoError(t, err)
	require.Equal(t, pricing.AdvancePercent, created.AdvanceMode)

	terms := created.Terms()
	require.Equal(t, 60.0, terms.PricePerM2)
	require.Equal(t, 24.0, terms.CalcValue)
}

func TestCreateOfferRejectsUnknownModes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateOfferRequest{
		BatchID:     uuid.New(),
		Name:        "bad",
		PricePerM2:  60,
		AdvanceMode: "half",
		CalcMode:    pricing.CalcMonths,
		CalcValue:   24,
	})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}
