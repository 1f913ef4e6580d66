package clients

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Service handles client intake logic.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, Client{
		FullName:   req.FullName,
		Phone:      req.Phone,
		NationalID: req.NationalID,
		Address:    req.Address,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*Client, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, shared.Pagination, error) {
	if err := shared.Validate(req); err != nil {
		return nil, shared.Pagination{}, err
	}
	list, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(req.Page, req.PerPage, total), nil
}
