package sale

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/pkg/numerator"
)

type fakeRepo struct {
	mu           sync.Mutex
	transactions map[id.ID]*Transaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{transactions: make(map[id.ID]*Transaction)}
}

func (r *fakeRepo) snapshot() map[id.ID]*Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[id.ID]*Transaction, len(r.transactions))
	for k, v := range r.transactions {
		cp := *v
		cp.Lines = append([]Line(nil), v.Lines...)
		snap[k] = &cp
	}
	return snap
}

func (r *fakeRepo) restore(snap map[id.ID]*Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = snap
}

func (r *fakeRepo) Create(_ context.Context, t *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	cp.Lines = nil
	r.transactions[t.ID] = &cp
	return nil
}

func (r *fakeRepo) InsertLines(_ context.Context, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range lines {
		t, ok := r.transactions[line.TransactionID]
		if !ok {
			return apperror.NewNotFound("sale transaction", line.TransactionID.String())
		}
		t.Lines = append(t.Lines, line)
	}
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, txID id.ID) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[txID]
	if !ok {
		return nil, apperror.NewNotFound("sale transaction", txID.String())
	}
	cp := *t
	cp.Lines = append([]Line(nil), t.Lines...)
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transaction, 0, len(r.transactions))
	for _, t := range r.transactions {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, txID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transactions, txID)
	return nil
}

func (r *fakeRepo) ExistsByTransactionNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transactions {
		if t.TransactionNumber == number {
			return true, nil
		}
	}
	return false, nil
}

type fakeLotStore struct {
	mu   sync.Mutex
	lots map[id.ID]*stock.Lot
}

func newFakeLotStore() *fakeLotStore {
	return &fakeLotStore{lots: make(map[id.ID]*stock.Lot)}
}

func (s *fakeLotStore) snapshot() map[id.ID]*stock.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[id.ID]*stock.Lot, len(s.lots))
	for k, v := range s.lots {
		cp := *v
		snap[k] = &cp
	}
	return snap
}

func (s *fakeLotStore) restore(snap map[id.ID]*stock.Lot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots = snap
}

func (s *fakeLotStore) add(lot *stock.Lot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.ID] = lot
}

func (s *fakeLotStore) GetByID(_ context.Context, lotID id.ID) (*stock.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("stock lot", lotID.String())
	}
	cp := *lot
	return &cp, nil
}

func (s *fakeLotStore) GetByIDForUpdate(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return s.GetByID(ctx, lotID)
}

func (s *fakeLotStore) AddQuantity(_ context.Context, lotID id.ID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[lotID]
	if !ok {
		return apperror.NewNotFound("stock lot", lotID.String())
	}
	lot.Quantity += delta
	return nil
}

func (s *fakeLotStore) quantity(lotID id.ID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lots[lotID].Quantity
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[id.ID]*catalog.Product
}

func (r *fakeProducts) Create(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *fakeProducts) GetByID(_ context.Context, entityID id.ID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[entityID]
	if !ok {
		return nil, apperror.NewNotFound("product", entityID.String())
	}
	return p, nil
}

func (r *fakeProducts) Update(_ context.Context, _ *catalog.Product) error { return nil }

func (r *fakeProducts) Delete(_ context.Context, entityID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, entityID)
	return nil
}

func (r *fakeProducts) List(_ context.Context, _ catalog.ListFilter) (catalog.ListResult[*catalog.Product], error) {
	return catalog.ListResult[*catalog.Product]{}, nil
}

func (r *fakeProducts) Exists(_ context.Context, entityID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.products[entityID]
	return ok, nil
}

func (r *fakeProducts) GetByName(_ context.Context, name string, _ id.ID) (*catalog.Product, error) {
	return nil, apperror.NewNotFound("product", name)
}

func (r *fakeProducts) ListByManufacturer(_ context.Context, _ id.ID) ([]*catalog.Product, error) {
	return nil, nil
}

// passthroughPricing returns the catalog price untouched.
type passthroughPricing struct{}

func (passthroughPricing) EffectivePrice(_ context.Context, _ id.ID, basePrice types.Money, _ time.Time) (types.Money, error) {
	return basePrice, nil
}

// percentPricing applies a fixed percentage discount to every product.
type percentPricing struct {
	percent types.Money
}

func (p percentPricing) EffectivePrice(_ context.Context, _ id.ID, basePrice types.Money, _ time.Time) (types.Money, error) {
	factor := types.NewMoneyFromInt(100).Sub(p.percent).Div(types.NewMoneyFromInt(100))
	return types.RoundCurrency(basePrice.Mul(factor)), nil
}

type memoryAuditStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *memoryAuditStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memoryAuditStore) List(_ context.Context, _ audit.Filter) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...), nil
}

// fakeTxManager serializes transactions under one mutex and restores the
// in-memory stores when fn fails, mirroring commit and rollback.
type fakeTxManager struct {
	mu   sync.Mutex
	repo *fakeRepo
	lots *fakeLotStore
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	repoSnap := m.repo.snapshot()
	lotSnap := m.lots.snapshot()
	if err := fn(ctx); err != nil {
		m.repo.restore(repoSnap)
		m.lots.restore(lotSnap)
		return err
	}
	return nil
}

type fixture struct {
	svc        *Service
	repo       *fakeRepo
	lots       *fakeLotStore
	products   *fakeProducts
	auditStore *memoryAuditStore

	paracetamol *catalog.Product // 2.00 a unit
	ibuprofen   *catalog.Product // 5.50 a unit
}

func newFixture(pricing PriceResolver) *fixture {
	f := &fixture{
		repo:       newFakeRepo(),
		lots:       newFakeLotStore(),
		products:   &fakeProducts{products: make(map[id.ID]*catalog.Product)},
		auditStore: &memoryAuditStore{},
	}
	f.paracetamol = &catalog.Product{ID: id.New(), Name: "Paracetamol", SalePrice: types.MustMoney("2.00")}
	f.ibuprofen = &catalog.Product{ID: id.New(), Name: "Ibuprofen", SalePrice: types.MustMoney("5.50")}
	f.products.products[f.paracetamol.ID] = f.paracetamol
	f.products.products[f.ibuprofen.ID] = f.ibuprofen

	f.svc = NewService(f.repo, f.lots, f.products, pricing,
		&fakeTxManager{repo: f.repo, lots: f.lots},
		audit.NewRecorder(f.auditStore),
		&numerator.MockGenerator{})
	return f
}

func (f *fixture) lot(product *catalog.Product, quantity int64) *stock.Lot {
	lot := &stock.Lot{
		ID:         id.New(),
		ProductID:  product.ID,
		ExpiryDate: day(2027, time.July, 1),
		Quantity:   quantity,
	}
	f.lots.add(lot)
	return lot
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func saleDoc(lines ...Line) *Transaction {
	t := &Transaction{
		TransactionDate: day(2026, time.May, 10),
		PaymentMethod:   PaymentCash,
		CreatedBy:       "cashier",
	}
	for _, l := range lines {
		t.AddLine(l.LotID, l.Quantity)
	}
	return t
}

func TestService_Record(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lotA := f.lot(f.paracetamol, 20)
	lotB := f.lot(f.ibuprofen, 8)

	doc := saleDoc(Line{LotID: lotA.ID, Quantity: 3}, Line{LotID: lotB.ID, Quantity: 2})
	doc.CashReceived = types.MustMoney("20.00")

	require.NoError(t, f.svc.Record(context.Background(), doc))

	// 3*2.00 + 2*5.50 = 17.00
	assert.True(t, doc.GrossPrice.Equal(types.MustMoney("17.00")), "got %s", doc.GrossPrice)
	assert.True(t, doc.NetTotal.Equal(types.MustMoney("17.00")))
	assert.True(t, doc.ChangeDue().Equal(types.MustMoney("3.00")))

	assert.Equal(t, int64(17), f.lots.quantity(lotA.ID))
	assert.Equal(t, int64(6), f.lots.quantity(lotB.ID))

	assert.NotEmpty(t, doc.TransactionNumber, "number must be issued when none supplied")

	events, err := f.auditStore.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRecordSale, events[0].Action)
	assert.Equal(t, "cashier", events[0].Actor)
}

func TestService_Record_DiscountedPricing(t *testing.T) {
	f := newFixture(percentPricing{percent: types.MustMoney("25")})
	lot := f.lot(f.paracetamol, 10)

	doc := saleDoc(Line{LotID: lot.ID, Quantity: 4})
	require.NoError(t, f.svc.Record(context.Background(), doc))

	// unit price 2.00 * 0.75 = 1.50; gross 4 * 1.50 = 6.00
	assert.True(t, doc.Lines[0].SalePrice.Equal(types.MustMoney("1.50")))
	assert.True(t, doc.GrossPrice.Equal(types.MustMoney("6.00")), "got %s", doc.GrossPrice)
}

func TestService_Record_NetTotalFloorsAtZero(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lot := f.lot(f.paracetamol, 10)

	doc := saleDoc(Line{LotID: lot.ID, Quantity: 1})
	doc.Discount = types.MustMoney("50.00") // exceeds the 2.00 gross

	require.NoError(t, f.svc.Record(context.Background(), doc))
	assert.True(t, doc.NetTotal.Equal(types.Zero()), "net total must floor at zero, got %s", doc.NetTotal)
}

func TestService_Record_InsufficientStockAbortsWholeSale(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lotA := f.lot(f.paracetamol, 20)
	lotB := f.lot(f.ibuprofen, 1)

	doc := saleDoc(Line{LotID: lotA.ID, Quantity: 5}, Line{LotID: lotB.ID, Quantity: 2})

	err := f.svc.Record(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Contains(t, err.Error(), "Ibuprofen")

	// The first line's decrement must roll back with the rest.
	assert.Equal(t, int64(20), f.lots.quantity(lotA.ID))
	assert.Equal(t, int64(1), f.lots.quantity(lotB.ID))

	txs, listErr := f.repo.List(context.Background(), ListFilter{})
	require.NoError(t, listErr)
	assert.Empty(t, txs, "no header may persist for an aborted sale")
}

func TestService_Record_DuplicateTransactionNumber(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lot := f.lot(f.paracetamol, 10)

	first := saleDoc(Line{LotID: lot.ID, Quantity: 1})
	first.TransactionNumber = "SALE-2026-00042"
	require.NoError(t, f.svc.Record(context.Background(), first))

	second := saleDoc(Line{LotID: lot.ID, Quantity: 1})
	second.TransactionNumber = "SALE-2026-00042"
	err := f.svc.Record(context.Background(), second)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestService_Record_ValidationFailures(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lot := f.lot(f.paracetamol, 10)

	tests := []struct {
		name   string
		mutate func(doc *Transaction)
	}{
		{"no lines", func(doc *Transaction) { doc.Lines = nil }},
		{"zero quantity", func(doc *Transaction) { doc.Lines[0].Quantity = 0 }},
		{"missing date", func(doc *Transaction) { doc.TransactionDate = time.Time{} }},
		{"bad payment method", func(doc *Transaction) { doc.PaymentMethod = "Barter" }},
		{"negative discount", func(doc *Transaction) { doc.Discount = types.MustMoney("-1") }},
		{"negative cash", func(doc *Transaction) { doc.CashReceived = types.MustMoney("-1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := saleDoc(Line{LotID: lot.ID, Quantity: 1})
			tt.mutate(doc)
			err := f.svc.Record(context.Background(), doc)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestService_Record_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lot := f.lot(f.paracetamol, 1)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := saleDoc(Line{LotID: lot.ID, Quantity: 1})
			errs[i] = f.svc.Record(context.Background(), doc)
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsInsufficientStock(err):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactly one sale may take the last unit")
	assert.Equal(t, workers-1, insufficient)
	assert.Equal(t, int64(0), f.lots.quantity(lot.ID))

	txs, err := f.repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestService_Reverse_RestoresLots(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lot := f.lot(f.paracetamol, 10)

	doc := saleDoc(Line{LotID: lot.ID, Quantity: 4})
	require.NoError(t, f.svc.Record(context.Background(), doc))
	require.Equal(t, int64(6), f.lots.quantity(lot.ID))

	require.NoError(t, f.svc.Reverse(context.Background(), doc.ID, "manager"))

	assert.Equal(t, int64(10), f.lots.quantity(lot.ID))
	_, err := f.repo.GetByID(context.Background(), doc.ID)
	assert.True(t, apperror.IsNotFound(err))

	events, err := f.auditStore.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionReverseSale, events[1].Action)
}

func TestService_Reverse_ConflictWhenProductGone(t *testing.T) {
	f := newFixture(passthroughPricing{})
	lot := f.lot(f.paracetamol, 10)

	doc := saleDoc(Line{LotID: lot.ID, Quantity: 4})
	require.NoError(t, f.svc.Record(context.Background(), doc))

	// The product leaves the catalog between sale and reversal.
	require.NoError(t, f.products.Delete(context.Background(), f.paracetamol.ID))

	err := f.svc.Reverse(context.Background(), doc.ID, "manager")
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// Stock stays sold and the document survives.
	assert.Equal(t, int64(6), f.lots.quantity(lot.ID))
	_, getErr := f.repo.GetByID(context.Background(), doc.ID)
	assert.NoError(t, getErr)
}

func TestTransaction_ChangeDue(t *testing.T) {
	tx := &Transaction{
		NetTotal:     types.MustMoney("17.00"),
		CashReceived: types.MustMoney("15.00"),
	}
	assert.True(t, tx.ChangeDue().Equal(types.Zero()), "underpayment yields no change")

	tx.CashReceived = types.MustMoney("20.00")
	assert.True(t, tx.ChangeDue().Equal(types.MustMoney("3.00")))
}
