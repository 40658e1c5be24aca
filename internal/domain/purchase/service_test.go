package purchase

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
)

type fakeRepo struct {
	mu           sync.Mutex
	transactions map[id.ID]*Transaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{transactions: make(map[id.ID]*Transaction)}
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
			return apperror.NewNotFound("purchase transaction", line.TransactionID.String())
		}
		t.Lines = append(t.Lines, line)
	}
	return nil
}

func (r *fakeRepo) UpdateTotalCost(_ context.Context, txID id.ID, total types.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[txID]
	if !ok {
		return apperror.NewNotFound("purchase transaction", txID.String())
	}
	t.TotalCost = total
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, txID id.ID) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[txID]
	if !ok {
		return nil, apperror.NewNotFound("purchase transaction", txID.String())
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

func (r *fakeRepo) ExistsByInvoiceNumber(_ context.Context, invoiceNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transactions {
		if t.InvoiceNumber == invoiceNumber {
			return true, nil
		}
	}
	return false, nil
}

type lotKey struct {
	productID id.ID
	expiry    time.Time
}

// fakeInventory tracks quantities per (product, expiry) key.
type fakeInventory struct {
	mu         sync.Mutex
	quantities map[lotKey]int64
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{quantities: make(map[lotKey]int64)}
}

func (f *fakeInventory) Receive(_ context.Context, productID id.ID, expiry time.Time, quantity int64) (*stock.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := lotKey{productID, expiry}
	f.quantities[key] += quantity
	return &stock.Lot{ID: id.New(), ProductID: productID, ExpiryDate: expiry, Quantity: f.quantities[key]}, nil
}

func (f *fakeInventory) Drain(_ context.Context, productID id.ID, expiry time.Time, quantity int64, productName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := lotKey{productID, expiry}
	available, ok := f.quantities[key]
	if !ok {
		return apperror.NewNotFound("stock lot", productID.String())
	}
	if available < quantity {
		return apperror.NewInsufficientStock(productName, quantity, available)
	}
	f.quantities[key] -= quantity
	return nil
}

func (f *fakeInventory) quantity(productID id.ID, expiry time.Time) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quantities[lotKey{productID, expiry}]
}

type fakeProducts struct {
	products map[id.ID]*catalog.Product
}

func (r *fakeProducts) Create(_ context.Context, p *catalog.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProducts) GetByID(_ context.Context, entityID id.ID) (*catalog.Product, error) {
	p, ok := r.products[entityID]
	if !ok {
		return nil, apperror.NewNotFound("product", entityID.String())
	}
	return p, nil
}

func (r *fakeProducts) Update(_ context.Context, _ *catalog.Product) error { return nil }
func (r *fakeProducts) Delete(_ context.Context, _ id.ID) error            { return nil }

func (r *fakeProducts) List(_ context.Context, _ catalog.ListFilter) (catalog.ListResult[*catalog.Product], error) {
	return catalog.ListResult[*catalog.Product]{}, nil
}

func (r *fakeProducts) Exists(_ context.Context, entityID id.ID) (bool, error) {
	_, ok := r.products[entityID]
	return ok, nil
}

func (r *fakeProducts) GetByName(_ context.Context, name string, manufacturerID id.ID) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.Name == name && p.ManufacturerID == manufacturerID {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", name)
}

func (r *fakeProducts) ListByManufacturer(_ context.Context, _ id.ID) ([]*catalog.Product, error) {
	return nil, nil
}

type fakeManufacturers struct {
	manufacturers map[id.ID]*catalog.Manufacturer
}

func (r *fakeManufacturers) Create(_ context.Context, m *catalog.Manufacturer) error {
	r.manufacturers[m.ID] = m
	return nil
}

func (r *fakeManufacturers) GetByID(_ context.Context, entityID id.ID) (*catalog.Manufacturer, error) {
	m, ok := r.manufacturers[entityID]
	if !ok {
		return nil, apperror.NewNotFound("manufacturer", entityID.String())
	}
	return m, nil
}

func (r *fakeManufacturers) Update(_ context.Context, _ *catalog.Manufacturer) error { return nil }
func (r *fakeManufacturers) Delete(_ context.Context, _ id.ID) error                 { return nil }

func (r *fakeManufacturers) List(_ context.Context, _ catalog.ListFilter) (catalog.ListResult[*catalog.Manufacturer], error) {
	return catalog.ListResult[*catalog.Manufacturer]{}, nil
}

func (r *fakeManufacturers) Exists(_ context.Context, entityID id.ID) (bool, error) {
	_, ok := r.manufacturers[entityID]
	return ok, nil
}

func (r *fakeManufacturers) GetByName(_ context.Context, name string) (*catalog.Manufacturer, error) {
	for _, m := range r.manufacturers {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, apperror.NewNotFound("manufacturer", name)
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

type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fixture struct {
	svc           *Service
	repo          *fakeRepo
	inventory     *fakeInventory
	products      *fakeProducts
	manufacturers *fakeManufacturers
	auditStore    *memoryAuditStore

	manufacturer *catalog.Manufacturer
	paracetamol  *catalog.Product
	ibuprofen    *catalog.Product
}

func newFixture() *fixture {
	f := &fixture{
		repo:          newFakeRepo(),
		inventory:     newFakeInventory(),
		products:      &fakeProducts{products: make(map[id.ID]*catalog.Product)},
		manufacturers: &fakeManufacturers{manufacturers: make(map[id.ID]*catalog.Manufacturer)},
		auditStore:    &memoryAuditStore{},
	}
	f.manufacturer = &catalog.Manufacturer{ID: id.New(), Name: "Acme Pharma"}
	f.manufacturers.manufacturers[f.manufacturer.ID] = f.manufacturer
	f.paracetamol = &catalog.Product{ID: id.New(), Name: "Paracetamol", ManufacturerID: f.manufacturer.ID}
	f.ibuprofen = &catalog.Product{ID: id.New(), Name: "Ibuprofen", ManufacturerID: f.manufacturer.ID}
	f.products.products[f.paracetamol.ID] = f.paracetamol
	f.products.products[f.ibuprofen.ID] = f.ibuprofen

	f.svc = NewService(f.repo, f.inventory, f.products, f.manufacturers,
		&serialTxManager{}, audit.NewRecorder(f.auditStore))
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) document(invoice string) *Transaction {
	t := &Transaction{
		InvoiceNumber:  invoice,
		ManufacturerID: f.manufacturer.ID,
		PurchaseDate:   day(2026, time.April, 2),
		CreatedBy:      "storekeeper",
	}
	t.AddLine(f.paracetamol.ID, "B-100", 10, types.MustMoney("2.50"), day(2027, time.April, 1))
	t.AddLine(f.ibuprofen.ID, "B-200", 4, types.MustMoney("5.25"), day(2027, time.June, 1))
	return t
}

func TestService_Record(t *testing.T) {
	f := newFixture()
	doc := f.document("INV-1001")

	require.NoError(t, f.svc.Record(context.Background(), doc))

	// 10*2.50 + 4*5.25 = 46.00
	assert.True(t, doc.TotalCost.Equal(types.MustMoney("46.00")), "got %s", doc.TotalCost)

	stored, err := f.repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalCost.Equal(types.MustMoney("46.00")))
	assert.Len(t, stored.Lines, 2)

	assert.Equal(t, int64(10), f.inventory.quantity(f.paracetamol.ID, day(2027, time.April, 1)))
	assert.Equal(t, int64(4), f.inventory.quantity(f.ibuprofen.ID, day(2027, time.June, 1)))

	events, err := f.auditStore.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRecordPurchase, events[0].Action)
	assert.Equal(t, "storekeeper", events[0].Actor)
	assert.Equal(t, doc.ID, events[0].SubjectID)
}

func TestService_Record_DuplicateInvoice(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.Record(context.Background(), f.document("INV-1001")))

	err := f.svc.Record(context.Background(), f.document("INV-1001"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestService_Record_UnknownManufacturer(t *testing.T) {
	f := newFixture()
	doc := f.document("INV-1001")
	doc.ManufacturerID = id.New()

	err := f.svc.Record(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_Record_UnknownProduct(t *testing.T) {
	f := newFixture()
	doc := f.document("INV-1001")
	doc.Lines[1].ProductID = id.New()

	err := f.svc.Record(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, int64(0), f.inventory.quantity(f.paracetamol.ID, day(2027, time.April, 1)),
		"rejected document must not touch stock")
}

func TestService_Record_ValidationFailures(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		mutate func(doc *Transaction)
	}{
		{"empty invoice", func(doc *Transaction) { doc.InvoiceNumber = "" }},
		{"no lines", func(doc *Transaction) { doc.Lines = nil }},
		{"zero quantity", func(doc *Transaction) { doc.Lines[0].Quantity = 0 }},
		{"negative quantity", func(doc *Transaction) { doc.Lines[0].Quantity = -3 }},
		{"zero price", func(doc *Transaction) { doc.Lines[0].UnitPrice = types.Zero() }},
		{"missing expiry", func(doc *Transaction) { doc.Lines[0].ExpiryDate = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := f.document("INV-2001")
			tt.mutate(doc)
			err := f.svc.Record(context.Background(), doc)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestService_Reverse_RoundTrip(t *testing.T) {
	f := newFixture()
	doc := f.document("INV-1001")
	require.NoError(t, f.svc.Record(context.Background(), doc))

	require.NoError(t, f.svc.Reverse(context.Background(), doc.ID, "manager"))

	assert.Equal(t, int64(0), f.inventory.quantity(f.paracetamol.ID, day(2027, time.April, 1)))
	assert.Equal(t, int64(0), f.inventory.quantity(f.ibuprofen.ID, day(2027, time.June, 1)))

	_, err := f.repo.GetByID(context.Background(), doc.ID)
	assert.True(t, apperror.IsNotFound(err))

	events, err := f.auditStore.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionReversePurchase, events[1].Action)
	assert.Equal(t, "manager", events[1].Actor)
}

func TestService_Reverse_ConflictWhenStockConsumed(t *testing.T) {
	f := newFixture()
	doc := f.document("INV-1001")
	require.NoError(t, f.svc.Record(context.Background(), doc))

	// Part of the delivered paracetamol is sold before the reversal.
	require.NoError(t, f.inventory.Drain(context.Background(),
		f.paracetamol.ID, day(2027, time.April, 1), 4, "Paracetamol"))

	err := f.svc.Reverse(context.Background(), doc.ID, "manager")
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// Nothing was drained and the document survives.
	assert.Equal(t, int64(6), f.inventory.quantity(f.paracetamol.ID, day(2027, time.April, 1)))
	_, getErr := f.repo.GetByID(context.Background(), doc.ID)
	assert.NoError(t, getErr)
}

func TestService_Reverse_NotFound(t *testing.T) {
	f := newFixture()

	err := f.svc.Reverse(context.Background(), id.New(), "manager")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
