package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/installments"
	"github.com/ardhi-erp/ardhi/internal/sales"
)

// Enqueuer submits a dispatch task for a persisted notification row. The
// queue client implements this; tests substitute a recorder.
type Enqueuer interface {
	EnqueueNotificationDispatch(ctx context.Context, notificationID uuid.UUID) error
}

// Service persists notification rows and hands them to the queue. It
// implements the sales confirmation Notifier port.
type Service struct {
	repo     Repository
	enqueuer Enqueuer
	logger   *slog.Logger
}

func NewService(repo Repository, enqueuer Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, enqueuer: enqueuer, logger: logger}
}

// SaleConfirmed records and queues a post-confirmation notification.
func (s *Service) SaleConfirmed(ctx context.Context, evt sales.ConfirmedEvent) error {
	msg := fmt.Sprintf("sale %s confirmed, collected %.2f", evt.SaleID, evt.Amount)
	if evt.Partial {
		msg = fmt.Sprintf("sale %s received a partial payment of %.2f", evt.SaleID, evt.Amount)
	}
	return s.record(ctx, Notification{
		Kind:     KindSaleConfirmed,
		ClientID: &evt.ClientID,
		SaleID:   &evt.SaleID,
		Message:  msg,
	})
}

// InstallmentOverdue records one overdue reminder per installment. A
// reminder already on file makes this a no-op.
func (s *Service) InstallmentOverdue(ctx context.Context, inst installments.Installment) error {
	seen, err := s.repo.HasOverdueNotice(ctx, inst.ID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}
	return s.record(ctx, Notification{
		Kind:          KindInstallmentOverdue,
		SaleID:        &inst.SaleID,
		InstallmentID: &inst.ID,
		Message: fmt.Sprintf("installment %d of sale %s is overdue: %.2f due since %s",
			inst.Number, inst.SaleID, inst.Remaining(), inst.DueDate.Format("2006-01-02")),
	})
}

// MarkDelivered flips a queued row after the dispatch task ran.
func (s *Service) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.MarkDelivered(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		s.logger.Debug("notification already delivered", slog.String("notification_id", id.String()))
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) record(ctx context.Context, n Notification) error {
	id, err := s.repo.Create(ctx, n)
	if err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	if s.enqueuer == nil {
		return nil
	}
	if err := s.enqueuer.EnqueueNotificationDispatch(ctx, id); err != nil {
		// The row stays queued; a later scan or manual redispatch can
		// pick it up.
		s.logger.Warn("enqueue notification dispatch failed",
			slog.String("notification_id", id.String()), slog.Any("error", err))
	}
	return nil
}
