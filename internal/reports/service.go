package reports

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ardhi-erp/ardhi/internal/money"
)

// Service builds the financial report views. Concurrent requests for the
// same batch collapse into one computation; results live in the
// versioned cache until a write bumps it.
type Service struct {
	repo    Repository
	cache   *Cache
	logger  *slog.Logger
	group   singleflight.Group
	printer *message.Printer
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

// BatchReport builds or serves the cached report for one batch.
func (s *Service) BatchReport(ctx context.Context, batchID uuid.UUID) (*BatchReport, error) {
	key, err := s.cache.Key(ctx, "reports", "batch", batchID.String())
	if err != nil {
		return nil, err
	}

	result, err, _ := s.flight(ctx, key, func(ctx context.Context) (interface{}, error) {
		var report BatchReport
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
			return s.buildBatchReport(ctx, batchID)
		})
		if err != nil {
			return nil, err
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*BatchReport), nil
}

// Summary builds the all-batches rollup.
func (s *Service) Summary(ctx context.Context) (*SummaryReport, error) {
	key, err := s.cache.Key(ctx, "reports", "summary")
	if err != nil {
		return nil, err
	}

	result, err, _ := s.flight(ctx, key, func(ctx context.Context) (interface{}, error) {
		var report SummaryReport
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
			return s.buildSummary(ctx)
		})
		if err != nil {
			return nil, err
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*SummaryReport), nil
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) flight(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-ch:
		return res.Val, res.Err, res.Shared
	}
}

func (s *Service) buildBatchReport(ctx context.Context, batchID uuid.UUID) (*BatchReport, error) {
	name, err := s.repo.BatchName(ctx, batchID)
	if err != nil {
		return nil, err
	}
	pieces, err := s.repo.PieceCounts(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("piece counts: %w", err)
	}
	salesTotals, err := s.repo.SalesTotals(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}
	instTotals, err := s.repo.InstallmentTotals(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("installment totals: %w", err)
	}

	// Advance money on completed installment sales is everything between
	// price-minus-deposit and what went into the schedule.
	advanceCollected := salesTotals.InstallmentCompletedValue - instTotals.TotalDue
	if advanceCollected < 0 {
		advanceCollected = 0
	}
	collected := money.Round2(salesTotals.TotalDeposits + salesTotals.TotalPartials +
		salesTotals.FullCompletedValue + advanceCollected + instTotals.TotalPaid)
	outstanding := money.Sub2(salesTotals.TotalValue, collected)
	if outstanding < 0 {
		outstanding = 0
	}

	report := &BatchReport{
		BatchID:          batchID,
		BatchName:        name,
		Pieces:           pieces,
		Sales:            salesTotals,
		Installments:     instTotals,
		TotalCollected:   collected,
		TotalOutstanding: outstanding,
	}
	report.Formatted = FormattedTotals{
		TotalValue:       s.formatAmount(salesTotals.TotalValue),
		TotalCollected:   s.formatAmount(collected),
		TotalOutstanding: s.formatAmount(outstanding),
		OverdueAmount:    s.formatAmount(instTotals.OverdueAmount),
	}
	return report, nil
}

func (s *Service) buildSummary(ctx context.Context) (*SummaryReport, error) {
	ids, err := s.repo.ListBatchIDs(ctx)
	if err != nil {
		return nil, err
	}
	summary := &SummaryReport{Batches: []BatchReport{}}
	for _, id := range ids {
		report, err := s.buildBatchReport(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", id, err)
		}
		summary.Batches = append(summary.Batches, *report)
		summary.TotalValue += report.Sales.TotalValue
		summary.TotalCollected += report.TotalCollected
		summary.TotalOutstanding += report.TotalOutstanding
	}
	summary.TotalValue = money.Round2(summary.TotalValue)
	summary.TotalCollected = money.Round2(summary.TotalCollected)
	summary.TotalOutstanding = money.Round2(summary.TotalOutstanding)
	return summary, nil
}

func (s *Service) formatAmount(v float64) string {
	return s.printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
