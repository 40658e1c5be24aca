package reports

import (
	"context"
	"sort"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/pkg/logger"
)

// Service assembles financial summaries.
type Service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Summarize computes the financial summary of [from, to]. The read is
// idempotent; a short-TTL cache may serve a recent copy.
func (s *Service) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	if to.Before(from) {
		return nil, apperror.NewValidation("report end date precedes start date")
	}

	if cached, err := s.cache.GetSummary(ctx, from, to); err != nil {
		logger.Warn(ctx, "summary cache read failed", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	purchaseCost, err := s.repo.TotalPurchaseCost(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sales, err := s.repo.TotalSales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	perProduct, err := s.repo.ProductBreakdown(ctx, from, to)
	if err != nil {
		return nil, err
	}

	for i := range perProduct {
		p := &perProduct[i]
		p.Profit = p.TotalEarned.Sub(p.TotalSpent)
	}
	sort.SliceStable(perProduct, func(i, j int) bool {
		return perProduct[i].Profit.GreaterThan(perProduct[j].Profit)
	})

	summary := &Summary{
		FromDate:          from,
		ToDate:            to,
		TotalPurchaseCost: purchaseCost,
		TotalSalesRevenue: sales.Revenue,
		TotalDiscount:     sales.Discount,
		Profit:            sales.Revenue.Sub(purchaseCost),
		PerProduct:        perProduct,
	}

	if err := s.cache.SetSummary(ctx, summary); err != nil {
		logger.Warn(ctx, "summary cache write failed", "error", err)
	}
	return summary, nil
}
