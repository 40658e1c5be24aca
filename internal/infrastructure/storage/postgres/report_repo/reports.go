// Package report_repo provides the PostgreSQL read side of the financial
// aggregator. Aggregates read straight off the transaction tables.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/reports"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	tx *postgres.TxManager
}

var _ reports.Repository = (*ReportRepo)(nil)

func NewReportRepo(tx *postgres.TxManager) *ReportRepo {
	return &ReportRepo{tx: tx}
}

// TotalPurchaseCost sums purchase header totals over [from, to].
func (r *ReportRepo) TotalPurchaseCost(ctx context.Context, from, to time.Time) (types.Money, error) {
	const query = `
		SELECT COALESCE(SUM(total_cost), 0)
		FROM purchase_transactions
		WHERE purchase_date >= $1 AND purchase_date <= $2`

	var total types.Money
	if err := r.tx.GetQuerier(ctx).QueryRow(ctx, query, from, to).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("total purchase cost: %w", err)
	}
	return total, nil
}

// TotalSales sums sale net totals and discounts over [from, to].
func (r *ReportRepo) TotalSales(ctx context.Context, from, to time.Time) (reports.SalesTotals, error) {
	const query = `
		SELECT COALESCE(SUM(net_total), 0) AS revenue,
		       COALESCE(SUM(discount), 0) AS discount
		FROM sale_transactions
		WHERE transaction_date >= $1 AND transaction_date <= $2`

	var totals reports.SalesTotals
	if err := pgxscan.Get(ctx, r.tx.GetQuerier(ctx), &totals, query, from, to); err != nil {
		return reports.SalesTotals{}, fmt.Errorf("total sales: %w", err)
	}
	return totals, nil
}

// ProductBreakdown aggregates purchase and sale lines per product over
// [from, to]. Products touched by either side appear once; the service
// computes profit and ordering.
func (r *ReportRepo) ProductBreakdown(ctx context.Context, from, to time.Time) ([]reports.ProductSummary, error) {
	const query = `
		WITH purchased AS (
			SELECT pl.product_id,
			       SUM(pl.quantity) AS purchased_quantity,
			       SUM(pl.quantity * pl.unit_price) AS total_spent
			FROM purchase_lines pl
			JOIN purchase_transactions pt ON pt.id = pl.transaction_id
			WHERE pt.purchase_date >= $1 AND pt.purchase_date <= $2
			GROUP BY pl.product_id
		),
		sold AS (
			SELECT l.product_id,
			       SUM(sl.quantity) AS sold_quantity,
			       SUM(sl.quantity * sl.sale_price) AS total_earned
			FROM sale_lines sl
			JOIN sale_transactions st ON st.id = sl.transaction_id
			JOIN stock_lots l ON l.id = sl.lot_id
			WHERE st.transaction_date >= $1 AND st.transaction_date <= $2
			GROUP BY l.product_id
		)
		SELECT p.id AS product_id,
		       p.name AS product_name,
		       COALESCE(pu.purchased_quantity, 0) AS purchased_quantity,
		       COALESCE(pu.total_spent, 0) AS total_spent,
		       COALESCE(so.sold_quantity, 0) AS sold_quantity,
		       COALESCE(so.total_earned, 0) AS total_earned,
		       0 AS profit
		FROM products p
		LEFT JOIN purchased pu ON pu.product_id = p.id
		LEFT JOIN sold so ON so.product_id = p.id
		WHERE pu.product_id IS NOT NULL OR so.product_id IS NOT NULL`

	var breakdown []reports.ProductSummary
	if err := pgxscan.Select(ctx, r.tx.GetQuerier(ctx), &breakdown, query, from, to); err != nil {
		return nil, fmt.Errorf("product breakdown: %w", err)
	}
	return breakdown, nil
}
