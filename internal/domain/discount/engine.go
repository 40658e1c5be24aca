package discount

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

var hundred = types.NewMoneyFromInt(100)

// Engine resolves the effective unit price of a product at a point in time.
type Engine struct {
	repo Repository
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// EffectivePrice applies every campaign active for the product on the given
// date. Percentages of overlapping campaigns add up and are capped at 100,
// so the price never goes negative. The discounted price is rounded to two
// decimal places; a price with no active campaign is returned as-is.
func (e *Engine) EffectivePrice(ctx context.Context, productID id.ID, basePrice types.Money, at time.Time) (types.Money, error) {
	active, err := e.repo.ActiveForProduct(ctx, productID, at)
	if err != nil {
		return types.Zero(), err
	}
	if len(active) == 0 {
		return basePrice, nil
	}

	total := types.Zero()
	for _, d := range active {
		total = total.Add(d.Percentage)
	}
	if total.GreaterThan(hundred) {
		total = hundred
	}

	factor := hundred.Sub(total).Div(hundred)
	return types.RoundCurrency(basePrice.Mul(factor)), nil
}

// ActiveDiscounts returns the campaigns covering a product on a date, for
// display alongside the price.
func (e *Engine) ActiveDiscounts(ctx context.Context, productID id.ID, at time.Time) ([]Discount, error) {
	return e.repo.ActiveForProduct(ctx, productID, at)
}
