package discount

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/pkg/logger"
)

// Service manages discount campaigns.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

func (s *Service) Create(ctx context.Context, d *Discount) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(d.ID) {
		d.ID = id.New()
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, d)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "discount created", "discount_id", d.ID, "name", d.Name)
	return nil
}

func (s *Service) Update(ctx context.Context, d *Discount) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, d)
	})
}

func (s *Service) Delete(ctx context.Context, discountID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, discountID)
	})
}

func (s *Service) GetByID(ctx context.Context, discountID id.ID) (*Discount, error) {
	return s.repo.GetByID(ctx, discountID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Discount, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
