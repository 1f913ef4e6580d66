package offers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Service handles payment-offer management.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateOfferRequest) (*Offer, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, Offer{
		BatchID:      req.BatchID,
		PieceID:      req.PieceID,
		Name:         req.Name,
		PricePerM2:   req.PricePerM2,
		AdvanceMode:  req.AdvanceMode,
		AdvanceValue: req.AdvanceValue,
		CalcMode:     req.CalcMode,
		CalcValue:    req.CalcValue,
	})
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Offer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]Offer, error) {
	return s.repo.ListByBatch(ctx, batchID)
}
