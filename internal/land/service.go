package land

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/pricing"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Service handles batch and piece inventory logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateBatch(ctx context.Context, req CreateBatchRequest) (*Batch, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	id, err := s.repo.CreateBatch(ctx, Batch{
		Name:                  req.Name,
		PricePerM2Cash:        req.PricePerM2Cash,
		PricePerM2Installment: req.PricePerM2Installment,
		Notes:                 req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return s.repo.GetBatch(ctx, id)
}

func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return s.repo.GetBatch(ctx, id)
}

func (s *Service) ListBatches(ctx context.Context) ([]Batch, error) {
	return s.repo.ListBatches(ctx)
}

func (s *Service) CreatePiece(ctx context.Context, req CreatePieceRequest) (*Piece, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBatch(ctx, req.BatchID); err != nil {
		return nil, fmt.Errorf("verify batch: %w", err)
	}
	id, err := s.repo.CreatePiece(ctx, Piece{
		BatchID:     req.BatchID,
		Number:      req.Number,
		SurfaceM2:   req.SurfaceM2,
		DirectPrice: req.DirectPrice,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create piece: %w", err)
	}
	return s.repo.GetPiece(ctx, id)
}

func (s *Service) GetPiece(ctx context.Context, id uuid.UUID) (*Piece, error) {
	return s.repo.GetPiece(ctx, id)
}

func (s *Service) ListPieces(ctx context.Context, req ListPiecesRequest) ([]Piece, shared.Pagination, error) {
	if err := shared.Validate(req); err != nil {
		return nil, shared.Pagination{}, err
	}
	pieces, total, err := s.repo.ListPieces(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return pieces, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Reserve moves an available piece to reserved. Zero rows affected means
// another session took the piece first.
func (s *Service) Reserve(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.TransitionPieceStatus(ctx, id, PieceAvailable, PieceReserved)
	if err != nil {
		return fmt.Errorf("reserve piece: %w", err)
	}
	if rows == 0 {
		return &shared.ConflictError{Resource: "piece", Reason: "piece is no longer available"}
	}
	return nil
}

// Release returns a reserved piece to the pool.
func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.TransitionPieceStatus(ctx, id, PieceReserved, PieceAvailable)
	if err != nil {
		return fmt.Errorf("release piece: %w", err)
	}
	if rows == 0 {
		return &shared.ConflictError{Resource: "piece", Reason: "piece is not reserved"}
	}
	return nil
}

// Quote prices a piece against its batch cash price, or its direct
// price when set. An unpriced piece quotes 0 and is flagged.
func (s *Service) Quote(ctx context.Context, pieceID uuid.UUID, deposit float64) (*QuoteResponse, error) {
	if deposit < 0 {
		return nil, shared.NewValidation("deposit", "must not be negative")
	}
	piece, err := s.repo.GetPiece(ctx, pieceID)
	if err != nil {
		return nil, err
	}
	batch, err := s.repo.GetBatch(ctx, piece.BatchID)
	if err != nil {
		return nil, err
	}
	q := pricing.QuotePiece(piece.SurfaceM2, batch.PricePerM2Cash, piece.DirectPrice, deposit)
	return &QuoteResponse{
		PieceID:               piece.ID,
		Total:                 q.Total,
		Deposit:               q.Deposit,
		RemainingAfterDeposit: q.RemainingAfterDeposit,
		Unpriced:              q.Total == 0,
	}, nil
}
