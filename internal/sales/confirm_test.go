package sales

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ardhi-erp/ardhi/internal/pricing"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

// fakeRepo is an in-memory Repository with the same conditional-update
// semantics as the pgx implementation. WithTx snapshots state and
// restores it on error so group atomicity is observable. Transactions
// serialize on txMu so a failed one only rolls back its own writes.
type fakeRepo struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	sales        map[uuid.UUID]*Sale
	pieces       map[uuid.UUID]*PieceSnapshot
	offers       map[uuid.UUID]*pricing.OfferTerms
	installments []InstallmentRow
	// dropWrites simulates a storage authorization layer that reports
	// success but silently filters the row out of the update.
	dropWrites bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sales:  make(map[uuid.UUID]*Sale),
		pieces: make(map[uuid.UUID]*PieceSnapshot),
		offers: make(map[uuid.UUID]*pricing.OfferTerms),
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	savedSales := make(map[uuid.UUID]*Sale, len(f.sales))
	for id, s := range f.sales {
		cp := *s
		savedSales[id] = &cp
	}
	savedPieces := make(map[uuid.UUID]*PieceSnapshot, len(f.pieces))
	for id, p := range f.pieces {
		cp := *p
		savedPieces[id] = &cp
	}
	savedInstallments := append([]InstallmentRow(nil), f.installments...)
	f.mu.Unlock()

	if err := fn(ctx, f); err != nil {
		f.mu.Lock()
		f.sales = savedSales
		f.pieces = savedPieces
		f.installments = savedInstallments
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeRepo) Create(ctx context.Context, s Sale) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	s.Status = StatusPending
	f.sales[s.ID] = &s
	return s.ID, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Sale
	for _, s := range f.sales {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ConditionalUpdate(ctx context.Context, id uuid.UUID, expected Status, patch SalePatch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok || s.Status != expected {
		return 0, nil
	}
	if f.dropWrites {
		return 1, nil
	}
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.PartialPaymentAmount != nil {
		s.PartialPaymentAmount = *patch.PartialPaymentAmount
	}
	if patch.RemainingPaymentAmount != nil {
		v := *patch.RemainingPaymentAmount
		s.RemainingPaymentAmount = &v
	}
	if patch.CompanyFeeAmount != nil {
		s.CompanyFeeAmount = *patch.CompanyFeeAmount
	}
	if patch.ContractWriter != nil {
		s.ContractWriter = patch.ContractWriter
	}
	if patch.Notes != nil {
		s.Notes = patch.Notes
	}
	if patch.ConfirmedBy != nil {
		s.ConfirmedBy = patch.ConfirmedBy
	}
	if patch.OfferSnapshot != nil {
		cp := *patch.OfferSnapshot
		s.OfferSnapshot = &cp
	}
	s.UpdatedAt = time.Now()
	return 1, nil
}

func (f *fakeRepo) MarkPieceSold(ctx context.Context, pieceID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pieces[pieceID]
	if !ok || p.Status == "sold" {
		return 0, nil
	}
	if f.dropWrites {
		return 1, nil
	}
	p.Status = "sold"
	return 1, nil
}

func (f *fakeRepo) PieceSnapshot(ctx context.Context, pieceID uuid.UUID) (*PieceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pieces[pieceID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) InsertInstallments(ctx context.Context, rows []InstallmentRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installments = append(f.installments, rows...)
	return nil
}

func (f *fakeRepo) OfferTerms(ctx context.Context, offerID uuid.UUID) (*pricing.OfferTerms, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.offers[offerID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func seedSale(f *fakeRepo, method PaymentMethod, price, deposit, surface float64) *Sale {
	pieceID := uuid.New()
	f.pieces[pieceID] = &PieceSnapshot{
		ID:        pieceID,
		BatchID:   uuid.New(),
		Number:    "P-1",
		SurfaceM2: surface,
		Status:    "reserved",
	}
	sale := &Sale{
		ID:            uuid.New(),
		ClientID:      uuid.New(),
		PieceID:       pieceID,
		BatchID:       f.pieces[pieceID].BatchID,
		SalePrice:     price,
		DepositAmount: deposit,
		PaymentMethod: method,
		Status:        StatusPending,
	}
	f.sales[sale.ID] = sale
	return sale
}

func seedOffer(f *fakeRepo, terms pricing.OfferTerms) uuid.UUID {
	id := uuid.New()
	f.offers[id] = &terms
	return id
}

func TestConfirmFullPayment(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodFull, 20000, 5000, 100)
	svc := NewService(repo, nil, nil, nil)

	result, err := svc.Confirm(context.Background(), sale.ID, ConfirmInput{ConfirmedBy: "agent", CompanyFee: 400})
	require.NoError(t, err)
	require.Equal(t, 15000.0, result.ConfirmationAmount)
	require.Equal(t, 15000.0, result.PaidNow)
	require.False(t, result.PartialPayment)
	require.Equal(t, StatusCompleted, result.Sale.Status)
	require.Equal(t, 400.0, result.Sale.CompanyFeeAmount)
	require.Equal(t, "sold", repo.pieces[sale.PieceID].Status)
}

func TestConfirmInstallmentMaterializesSchedule(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodInstallment, 5000, 300, 100)
	offerID := seedOffer(repo, pricing.OfferTerms{
		PricePerM2:   50,
		AdvanceMode:  pricing.AdvanceFixed,
		AdvanceValue: 1000,
		CalcMode:     pricing.CalcMonths,
		CalcValue:    24,
	})
	repo.sales[sale.ID].PaymentOfferID = &offerID
	svc := NewService(repo, nil, nil, nil)

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	result, err := svc.Confirm(context.Background(), sale.ID, ConfirmInput{
		ConfirmedBy:      "agent",
		InstallmentStart: &start,
	})
	require.NoError(t, err)
	require.Equal(t, 700.0, result.PaidNow)
	require.Equal(t, StatusCompleted, result.Sale.Status)
	require.NotNil(t, result.Sale.OfferSnapshot)
	require.Len(t, result.Schedule, 24)
	require.Len(t, repo.installments, 24)

	sum := 0.0
	for _, row := range repo.installments {
		sum += row.AmountDue
	}
	require.InDelta(t, 4000.0, sum, 0.001)
	require.Equal(t, 166.67, repo.installments[0].AmountDue)
	require.Equal(t, 166.59, repo.installments[23].AmountDue)
	require.Equal(t, start.AddDate(0, 1, 0), repo.installments[0].DueDate)
	require.Equal(t, "sold", repo.pieces[sale.PieceID].Status)
}

func TestConfirmPromiseConvergence(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodPromise, 10000, 1000, 100)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	first := 4000.0
	result, err := svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent", PaymentAmount: &first})
	require.NoError(t, err)
	require.True(t, result.PartialPayment)
	require.Equal(t, StatusPending, result.Sale.Status)
	require.Equal(t, 4000.0, result.Sale.PartialPaymentAmount)
	require.Equal(t, 5000.0, result.RemainingAfter)
	require.True(t, result.Sale.PartiallyPaid())
	require.Equal(t, "reserved", repo.pieces[sale.PieceID].Status)

	second := 5000.0
	result, err = svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent", PaymentAmount: &second})
	require.NoError(t, err)
	require.False(t, result.PartialPayment)
	require.Equal(t, StatusCompleted, result.Sale.Status)
	require.Equal(t, 9000.0, result.Sale.PartialPaymentAmount)
	require.NotNil(t, result.Sale.RemainingPaymentAmount)
	require.Equal(t, 0.0, *result.Sale.RemainingPaymentAmount)
	require.Equal(t, "sold", repo.pieces[sale.PieceID].Status)
}

func TestConfirmSingleShot(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodFull, 8000, 0, 50)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent"})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent"})
	require.Error(t, err)
	require.True(t, shared.IsConflict(err))
}

func TestConfirmRacingAttempts(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodFull, 8000, 0, 50)
	svc := NewService(repo, nil, nil, nil)

	start := make(chan struct{})
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := svc.Confirm(context.Background(), sale.ID, ConfirmInput{ConfirmedBy: "agent"})
			errs <- err
		}()
	}
	close(start)

	var succeeded, conflicted int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			require.True(t, shared.IsConflict(err))
			conflicted++
		} else {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, conflicted)
	require.Equal(t, StatusCompleted, repo.sales[sale.ID].Status)
	require.Equal(t, "sold", repo.pieces[sale.PieceID].Status)
}

type fakeInvalidator struct {
	mu    sync.Mutex
	count int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return nil
}

func TestConfirmDropsCachedReports(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodPromise, 10000, 1000, 100)
	inv := &fakeInvalidator{}
	svc := NewService(repo, nil, inv, nil)
	ctx := context.Background()

	// A partial tranche moves money and must already invalidate.
	first := 4000.0
	_, err := svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent", PaymentAmount: &first})
	require.NoError(t, err)
	require.Equal(t, 1, inv.count)

	second := 5000.0
	_, err = svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent", PaymentAmount: &second})
	require.NoError(t, err)
	require.Equal(t, 2, inv.count)
}

func TestConfirmCommissionWriteOnce(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodPromise, 6000, 0, 80)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	first := 2000.0
	result, err := svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent", CompanyFee: 500, PaymentAmount: &first})
	require.NoError(t, err)
	require.Equal(t, 500.0, result.Sale.CompanyFeeAmount)

	second := 4000.0
	result, err = svc.Confirm(ctx, sale.ID, ConfirmInput{ConfirmedBy: "agent", CompanyFee: 999, PaymentAmount: &second})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Sale.Status)
	require.Equal(t, 500.0, result.Sale.CompanyFeeAmount)
}

func TestConfirmPaymentExceedsOutstanding(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodPromise, 5000, 1000, 60)
	svc := NewService(repo, nil, nil, nil)

	pay := 4000.02
	_, err := svc.Confirm(context.Background(), sale.ID, ConfirmInput{ConfirmedBy: "agent", PaymentAmount: &pay})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestConfirmDroppedWriteIsPermissionError(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodFull, 12000, 2000, 90)
	repo.dropWrites = true
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Confirm(context.Background(), sale.ID, ConfirmInput{ConfirmedBy: "agent"})
	require.Error(t, err)
	var perm *shared.PermissionError
	require.ErrorAs(t, err, &perm)
}

func TestConfirmInstallmentRequiresStartDate(t *testing.T) {
	repo := newFakeRepo()
	sale := seedSale(repo, MethodInstallment, 5000, 0, 100)
	offerID := seedOffer(repo, pricing.OfferTerms{PricePerM2: 50, AdvanceMode: pricing.AdvanceFixed, AdvanceValue: 500, CalcMode: pricing.CalcMonths, CalcValue: 12})
	repo.sales[sale.ID].PaymentOfferID = &offerID
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Confirm(context.Background(), sale.ID, ConfirmInput{ConfirmedBy: "agent"})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}
