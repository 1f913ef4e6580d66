package sales

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/money"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

// ConfirmedEvent is published after a confirmation outcome is durable.
// Delivery is fire-and-forget: a failed publish never changes the
// confirmation result.
type ConfirmedEvent struct {
	SaleID   uuid.UUID `json:"sale_id"`
	ClientID uuid.UUID `json:"client_id"`
	PieceID  uuid.UUID `json:"piece_id"`
	Amount   float64   `json:"amount"`
	Partial  bool      `json:"partial"`
}

// Notifier publishes post-confirmation events.
type Notifier interface {
	SaleConfirmed(ctx context.Context, evt ConfirmedEvent) error
}

// ReportInvalidator drops cached report views once money has moved.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service is the sale intake and confirmation engine. Stateless between
// calls: all state lives in the persisted sale and installment rows.
type Service struct {
	repo     Repository
	notifier Notifier
	reports  ReportInvalidator
	logger   *slog.Logger
}

// NewService builds the sales service. notifier and reports may be nil.
func NewService(repo Repository, notifier Notifier, reports ReportInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, reports: reports, logger: logger}
}

// Create opens a pending sale against a sellable piece.
func (s *Service) Create(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if req.PaymentMethod == MethodInstallment && req.PaymentOfferID == nil {
		return nil, shared.NewValidation("payment_offer_id", "required for installment sales")
	}

	piece, err := s.repo.PieceSnapshot(ctx, req.PieceID)
	if err != nil {
		return nil, fmt.Errorf("verify piece: %w", err)
	}
	if piece.Status == "sold" {
		return nil, &shared.ConflictError{Resource: "piece", Reason: "piece is already sold"}
	}

	var price float64
	switch {
	case req.SalePrice != nil:
		price = *req.SalePrice
	case req.PaymentMethod == MethodInstallment:
		terms, err := s.repo.OfferTerms(ctx, *req.PaymentOfferID)
		if err != nil {
			return nil, fmt.Errorf("resolve offer: %w", err)
		}
		price = money.Round2(piece.SurfaceM2 * terms.PricePerM2)
	default:
		return nil, shared.NewValidation("sale_price", "required when no offer prices the piece")
	}
	if req.DepositAmount > price {
		return nil, shared.NewValidation("deposit_amount", "exceeds the sale price")
	}

	id, err := s.repo.Create(ctx, Sale{
		ClientID:       req.ClientID,
		PieceID:        req.PieceID,
		BatchID:        piece.BatchID,
		SalePrice:      price,
		DepositAmount:  req.DepositAmount,
		PaymentMethod:  req.PaymentMethod,
		PaymentOfferID: req.PaymentOfferID,
		DeadlineDate:   req.DeadlineDate,
		Notes:          req.Notes,
		SoldBy:         req.SoldBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]Sale, shared.Pagination, error) {
	if err := shared.Validate(req); err != nil {
		return nil, shared.Pagination{}, err
	}
	list, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// publish runs the post-confirmation side effects: cached reports are
// dropped and the notification event goes out. Failures are logged only
// and never change the confirmation outcome.
func (s *Service) publish(ctx context.Context, evt ConfirmedEvent) {
	if s.reports != nil {
		if err := s.reports.Invalidate(ctx); err != nil {
			s.logger.Warn("report cache invalidation failed",
				slog.String("sale_id", evt.SaleID.String()), slog.Any("error", err))
		}
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SaleConfirmed(ctx, evt); err != nil {
		s.logger.Warn("sale confirmed notification failed",
			slog.String("sale_id", evt.SaleID.String()), slog.Any("error", err))
	}
}
