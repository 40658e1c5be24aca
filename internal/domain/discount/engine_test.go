package discount

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

type fakeDiscountRepo struct {
	discounts []Discount
}

func (r *fakeDiscountRepo) Create(_ context.Context, d *Discount) error {
	r.discounts = append(r.discounts, *d)
	return nil
}

func (r *fakeDiscountRepo) Update(_ context.Context, _ *Discount) error { return nil }
func (r *fakeDiscountRepo) Delete(_ context.Context, _ id.ID) error     { return nil }
func (r *fakeDiscountRepo) GetByID(_ context.Context, _ id.ID) (*Discount, error) {
	return nil, nil
}
func (r *fakeDiscountRepo) List(_ context.Context, _ ListFilter) ([]Discount, error) {
	return r.discounts, nil
}

func (r *fakeDiscountRepo) ActiveForProduct(_ context.Context, productID id.ID, at time.Time) ([]Discount, error) {
	var out []Discount
	for _, d := range r.discounts {
		if !d.IsActive(at) {
			continue
		}
		for _, pid := range d.ProductIDs {
			if pid == productID {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func campaign(productID id.ID, pct string, from, to time.Time) Discount {
	return Discount{
		ID:         id.New(),
		Name:       "campaign " + pct,
		Percentage: types.MustMoney(pct),
		FromDate:   from,
		ToDate:     to,
		ProductIDs: []id.ID{productID},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEngine_EffectivePrice_NoCampaign(t *testing.T) {
	productID := id.New()
	engine := NewEngine(&fakeDiscountRepo{})

	price, err := engine.EffectivePrice(context.Background(), productID, types.MustMoney("12.345"), day(2026, time.May, 10))
	require.NoError(t, err)
	assert.True(t, price.Equal(types.MustMoney("12.345")), "undiscounted price passes through untouched, got %s", price)
}

func TestEngine_EffectivePrice_SingleCampaign(t *testing.T) {
	productID := id.New()
	repo := &fakeDiscountRepo{discounts: []Discount{
		campaign(productID, "20", day(2026, time.May, 1), day(2026, time.May, 31)),
	}}
	engine := NewEngine(repo)

	price, err := engine.EffectivePrice(context.Background(), productID, types.MustMoney("50.00"), day(2026, time.May, 10))
	require.NoError(t, err)
	assert.True(t, price.Equal(types.MustMoney("40.00")), "got %s", price)
}

func TestEngine_EffectivePrice_WindowBoundariesInclusive(t *testing.T) {
	productID := id.New()
	from, to := day(2026, time.May, 1), day(2026, time.May, 31)
	repo := &fakeDiscountRepo{discounts: []Discount{campaign(productID, "50", from, to)}}
	engine := NewEngine(repo)

	for _, at := range []time.Time{from, to} {
		price, err := engine.EffectivePrice(context.Background(), productID, types.MustMoney("10.00"), at)
		require.NoError(t, err)
		assert.True(t, price.Equal(types.MustMoney("5.00")), "boundary date %s must be active", at)
	}

	price, err := engine.EffectivePrice(context.Background(), productID, types.MustMoney("10.00"), day(2026, time.June, 1))
	require.NoError(t, err)
	assert.True(t, price.Equal(types.MustMoney("10.00")), "day after window must not discount")
}

func TestEngine_EffectivePrice_OverlappingCampaignsStack(t *testing.T) {
	productID := id.New()
	repo := &fakeDiscountRepo{discounts: []Discount{
		campaign(productID, "10", day(2026, time.May, 1), day(2026, time.May, 31)),
		campaign(productID, "15", day(2026, time.May, 5), day(2026, time.May, 20)),
	}}
	engine := NewEngine(repo)

	price, err := engine.EffectivePrice(context.Background(), productID, types.MustMoney("80.00"), day(2026, time.May, 10))
	require.NoError(t, err)
	assert.True(t, price.Equal(types.MustMoney("60.00")), "10%%+15%% of 80.00 is 60.00, got %s", price)
}

func TestEngine_EffectivePrice_StackedPercentageCapped(t *testing.T) {
	productID := id.New()
	repo := &fakeDiscountRepo{discounts: []Discount{
		campaign(productID, "70", day(2026, time.May, 1), day(2026, time.May, 31)),
		campaign(productID, "60", day(2026, time.May, 1), day(2026, time.May, 31)),
	}}
	engine := NewEngine(repo)

	price, err := engine.EffectivePrice(context.Background(), productID, types.MustMoney("25.00"), day(2026, time.May, 10))
	require.NoError(t, err)
	assert.True(t, price.Equal(types.Zero()), "stacked percentages cap at 100, got %s", price)
	assert.False(t, price.IsNegative())
}

func TestEngine_EffectivePrice_RoundsHalfUp(t *testing.T) {
	productID := id.New()
	repo := &fakeDiscountRepo{discounts: []Discount{
		campaign(productID, "15", day(2026, time.May, 1), day(2026, time.May, 31)),
	}}
	engine := NewEngine(repo)

	// 10.03 * 0.85 = 8.5255, half-up to 8.53
	price, err := engine.EffectivePrice(context.Background(), productID, types.MustMoney("10.03"), day(2026, time.May, 10))
	require.NoError(t, err)
	assert.True(t, price.Equal(types.MustMoney("8.53")), "got %s", price)
}

func TestEngine_EffectivePrice_OtherProductUnaffected(t *testing.T) {
	discounted := id.New()
	other := id.New()
	repo := &fakeDiscountRepo{discounts: []Discount{
		campaign(discounted, "50", day(2026, time.May, 1), day(2026, time.May, 31)),
	}}
	engine := NewEngine(repo)

	price, err := engine.EffectivePrice(context.Background(), other, types.MustMoney("9.99"), day(2026, time.May, 10))
	require.NoError(t, err)
	assert.True(t, price.Equal(types.MustMoney("9.99")))
}

func TestDiscount_Validate(t *testing.T) {
	base := Discount{
		Name:       "spring sale",
		Percentage: types.MustMoney("10"),
		FromDate:   day(2026, time.May, 1),
		ToDate:     day(2026, time.May, 31),
		ProductIDs: []id.ID{id.New()},
	}
	require.NoError(t, base.Validate(context.Background()))

	tests := []struct {
		name   string
		mutate func(d *Discount)
	}{
		{"empty name", func(d *Discount) { d.Name = "" }},
		{"zero percentage", func(d *Discount) { d.Percentage = types.Zero() }},
		{"percentage over 100", func(d *Discount) { d.Percentage = types.MustMoney("101") }},
		{"inverted window", func(d *Discount) { d.ToDate = d.FromDate.AddDate(0, 0, -1) }},
		{"no products", func(d *Discount) { d.ProductIDs = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			d.ProductIDs = append([]id.ID(nil), base.ProductIDs...)
			tt.mutate(&d)
			assert.Error(t, d.Validate(context.Background()))
		})
	}
}
