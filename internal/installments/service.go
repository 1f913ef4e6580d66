package installments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/money"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

// ReportInvalidator drops cached report views once money has moved.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service tracks collection against materialized schedules.
type Service struct {
	repo    Repository
	reports ReportInvalidator
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds the installments service. reports may be nil.
func NewService(repo Repository, reports ReportInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, reports: reports, logger: logger, now: time.Now}
}

// ListBySale returns the schedule with derived statuses resolved.
func (s *Service) ListBySale(ctx context.Context, saleID uuid.UUID) ([]Installment, error) {
	rows, err := s.repo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range rows {
		rows[i].Status = rows[i].EffectiveStatus(now)
	}
	return rows, nil
}

// RecordPayment applies a collection against one installment. The paid
// amount only ever grows and never exceeds the amount due; crossing the
// due amount within epsilon settles the row.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (*Installment, error) {
	if amount <= 0 {
		return nil, shared.NewValidation("amount", "must be positive")
	}

	inst, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load installment: %w", err)
	}
	if inst.Status == StatusPaid {
		return nil, &shared.ConflictError{Resource: "installment", Reason: "installment is already settled"}
	}

	newPaid := money.Round2(inst.AmountPaid + amount)
	if newPaid > inst.AmountDue+money.Epsilon {
		return nil, shared.NewValidation("amount", "exceeds the amount due on this installment")
	}
	markPaid := newPaid >= inst.AmountDue-money.Epsilon

	rows, err := s.repo.ApplyPayment(ctx, id, newPaid, markPaid, s.now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, &shared.ConflictError{Resource: "installment", Reason: "installment was settled concurrently"}
	}
	s.invalidateReports(ctx)
	return s.repo.Get(ctx, id)
}

// invalidateReports drops cached report views after a durable payment.
// Failures are logged only; the payment already stands.
func (s *Service) invalidateReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Invalidate(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", slog.Any("error", err))
	}
}

// Summarize aggregates the outstanding position of one sale's schedule.
func (s *Service) Summarize(ctx context.Context, saleID uuid.UUID) (*Summary, error) {
	rows, err := s.repo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sum := &Summary{SaleID: saleID}
	for i := range rows {
		row := &rows[i]
		sum.TotalDue += row.AmountDue
		sum.TotalPaid += row.AmountPaid
		switch row.EffectiveStatus(now) {
		case StatusPaid:
			sum.PaidCount++
		case StatusOverdue:
			sum.OverdueCount++
		default:
			sum.PendingCount++
		}
		if row.Status != StatusPaid && (sum.NextDueDate == nil || row.DueDate.Before(*sum.NextDueDate)) {
			due := row.DueDate
			sum.NextDueDate = &due
		}
	}
	sum.TotalDue = money.Round2(sum.TotalDue)
	sum.TotalPaid = money.Round2(sum.TotalPaid)
	sum.Outstanding = money.Sub2(sum.TotalDue, sum.TotalPaid)
	return sum, nil
}

// Overdue lists unpaid rows whose due date has passed.
func (s *Service) Overdue(ctx context.Context, limit int) ([]Installment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.repo.ListDueBefore(ctx, s.now().Truncate(24*time.Hour), limit)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Status = StatusOverdue
	}
	return rows, nil
}
