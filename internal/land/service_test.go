package land

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

type fakeRepo struct {
	batches map[uuid.UUID]*Batch
	pieces  map[uuid.UUID]*Piece
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		batches: make(map[uuid.UUID]*Batch),
		pieces:  make(map[uuid.UUID]*Piece),
	}
}

func (f *fakeRepo) CreateBatch(ctx context.Context, b Batch) (uuid.UUID, error) {
	b.ID = uuid.New()
	f.batches[b.ID] = &b
	return b.ID, nil
}

func (f *fakeRepo) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRepo) ListBatches(ctx context.Context) ([]Batch, error) {
	var out []Batch
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeRepo) CreatePiece(ctx context.Context, p Piece) (uuid.UUID, error) {
	p.ID = uuid.New()
	p.Status = PieceAvailable
	f.pieces[p.ID] = &p
	return p.ID, nil
}

func (f *fakeRepo) GetPiece(ctx context.Context, id uuid.UUID) (*Piece, error) {
	p, ok := f.pieces[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) ListPieces(ctx context.Context, req ListPiecesRequest) ([]Piece, int, error) {
	var out []Piece
	for _, p := range f.pieces {
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) TransitionPieceStatus(ctx context.Context, id uuid.UUID, from, to PieceStatus) (int64, error) {
	p, ok := f.pieces[id]
	if !ok || p.Status != from {
		return 0, nil
	}
	p.Status = to
	return 1, nil
}

func seedBatch(f *fakeRepo, cash float64) *Batch {
	b := &Batch{ID: uuid.New(), Name: "Test Batch", PricePerM2Cash: &cash}
	f.batches[b.ID] = b
	return b
}

func seedPiece(f *fakeRepo, batchID uuid.UUID, surface float64, direct *float64) *Piece {
	p := &Piece{
		ID:          uuid.New(),
		BatchID:     batchID,
		Number:      "P-1",
		SurfaceM2:   surface,
		DirectPrice: direct,
		Status:      PieceAvailable,
	}
	f.pieces[p.ID] = p
	return p
}

func TestReserveRelease(t *testing.T) {
	repo := newFakeRepo()
	batch := seedBatch(repo, 50)
	piece := seedPiece(repo, batch.ID, 100, nil)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, piece.ID))
	require.Equal(t, PieceReserved, repo.pieces[piece.ID].Status)

	// A second reservation loses the race.
	err := svc.Reserve(ctx, piece.ID)
	require.Error(t, err)
	require.True(t, shared.IsConflict(err))

	require.NoError(t, svc.Release(ctx, piece.ID))
	require.Equal(t, PieceAvailable, repo.pieces[piece.ID].Status)
}

func TestReleaseRequiresReserved(t *testing.T) {
	repo := newFakeRepo()
	batch := seedBatch(repo, 50)
	piece := seedPiece(repo, batch.ID, 100, nil)
	svc := NewService(repo)

	err := svc.Release(context.Background(), piece.ID)
	require.Error(t, err)
	require.True(t, shared.IsConflict(err))
}

func TestQuoteUsesBatchCashPrice(t *testing.T) {
	repo := newFakeRepo()
	batch := seedBatch(repo, 50)
	piece := seedPiece(repo, batch.ID, 120, nil)
	svc := NewService(repo)

	q, err := svc.Quote(context.Background(), piece.ID, 500)
	require.NoError(t, err)
	require.Equal(t, 6000.0, q.Total)
	require.Equal(t, 5500.0, q.RemainingAfterDeposit)
	require.False(t, q.Unpriced)
}

func TestQuoteDirectPriceOverrides(t *testing.T) {
	repo := newFakeRepo()
	batch := seedBatch(repo, 50)
	direct := 7500.0
	piece := seedPiece(repo, batch.ID, 120, &direct)
	svc := NewService(repo)

	q, err := svc.Quote(context.Background(), piece.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 7500.0, q.Total)
}

func TestQuoteUnpricedPiece(t *testing.T) {
	repo := newFakeRepo()
	b := &Batch{ID: uuid.New(), Name: "No Prices"}
	repo.batches[b.ID] = b
	piece := seedPiece(repo, b.ID, 120, nil)
	svc := NewService(repo)

	q, err := svc.Quote(context.Background(), piece.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, q.Total)
	require.True(t, q.Unpriced)
}

func TestCreatePieceVerifiesBatch(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.CreatePiece(context.Background(), CreatePieceRequest{
		BatchID:   uuid.New(),
		Number:    "P-9",
		SurfaceM2: 80,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
