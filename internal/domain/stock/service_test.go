package stock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
)

// fakeRepo is an in-memory Repository. Row locks are emulated by the
// serializing tx manager below, so methods only guard map access.
type fakeRepo struct {
	mu   sync.Mutex
	lots map[id.ID]*Lot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{lots: make(map[id.ID]*Lot)}
}

func (r *fakeRepo) Create(_ context.Context, lot *Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *lot
	r.lots[lot.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, lotID id.ID) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("stock lot", lotID.String())
	}
	cp := *lot
	return &cp, nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, lotID id.ID) (*Lot, error) {
	return r.GetByID(ctx, lotID)
}

func (r *fakeRepo) FindByProductExpiry(_ context.Context, productID id.ID, expiry time.Time) (*Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lot := range r.lots {
		if lot.ProductID == productID && lot.ExpiryDate.Equal(expiry) {
			cp := *lot
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("stock lot", productID.String())
}

func (r *fakeRepo) FindByProductExpiryForUpdate(ctx context.Context, productID id.ID, expiry time.Time) (*Lot, error) {
	return r.FindByProductExpiry(ctx, productID, expiry)
}

func (r *fakeRepo) AddQuantity(_ context.Context, lotID id.ID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[lotID]
	if !ok {
		return apperror.NewNotFound("stock lot", lotID.String())
	}
	lot.Quantity += delta
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) ([]LotView, error) { return nil, nil }

func (r *fakeRepo) ListByProduct(_ context.Context, productID id.ID) ([]Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Lot
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *fakeRepo) TotalQuantity(_ context.Context, productID id.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			total += lot.Quantity
		}
	}
	return total, nil
}

func (r *fakeRepo) LowStock(_ context.Context) ([]LowStockItem, error) { return nil, nil }

// serialTxManager runs each transaction under one mutex, modelling the
// row-lock serialization the real manager gets from SELECT FOR UPDATE.
type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestService_Receive_CreatesLot(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &serialTxManager{})

	productID := id.New()
	expiry := date(2027, time.March, 1)

	lot, err := svc.Receive(context.Background(), productID, expiry, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(30), lot.Quantity)
	assert.Equal(t, productID, lot.ProductID)

	total, err := svc.TotalQuantity(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), total)
}

func TestService_Receive_MergesSameExpiry(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &serialTxManager{})

	productID := id.New()
	expiry := date(2027, time.March, 1)

	first, err := svc.Receive(context.Background(), productID, expiry, 10)
	require.NoError(t, err)
	second, err := svc.Receive(context.Background(), productID, expiry, 5)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same product and expiry must reuse the lot")
	assert.Equal(t, int64(15), second.Quantity)

	lots, err := repo.ListByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.Len(t, lots, 1)
}

func TestService_Receive_DistinctExpiryDistinctLots(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &serialTxManager{})

	productID := id.New()
	_, err := svc.Receive(context.Background(), productID, date(2027, time.March, 1), 10)
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), productID, date(2028, time.March, 1), 10)
	require.NoError(t, err)

	lots, err := repo.ListByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.Len(t, lots, 2)
}

func TestService_Receive_RejectsNonPositive(t *testing.T) {
	svc := NewService(newFakeRepo(), &serialTxManager{})

	_, err := svc.Receive(context.Background(), id.New(), date(2027, time.March, 1), 0)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_Issue_DecrementsToZero(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &serialTxManager{})

	lot, err := svc.Receive(context.Background(), id.New(), date(2027, time.March, 1), 7)
	require.NoError(t, err)

	require.NoError(t, svc.Issue(context.Background(), lot.ID, 7, "Paracetamol"))

	got, err := svc.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity, "sold out lot stays at zero, not deleted")
}

func TestService_Issue_InsufficientStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &serialTxManager{})

	lot, err := svc.Receive(context.Background(), id.New(), date(2027, time.March, 1), 3)
	require.NoError(t, err)

	err = svc.Issue(context.Background(), lot.ID, 5, "Paracetamol")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Contains(t, err.Error(), "Paracetamol")

	got, err := svc.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Quantity, "failed issue must not change quantity")
}

func TestService_Issue_Concurrent_LastUnit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &serialTxManager{})

	lot, err := svc.Receive(context.Background(), id.New(), date(2027, time.March, 1), 1)
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Issue(context.Background(), lot.ID, 1, "Ibuprofen")
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
	assert.Equal(t, 1, ok, "exactly one issue may win the last unit")
	assert.Equal(t, workers-1, insufficient)

	got, err := svc.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)
}

func TestService_Return_RestoresQuantity(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &serialTxManager{})

	lot, err := svc.Receive(context.Background(), id.New(), date(2027, time.March, 1), 4)
	require.NoError(t, err)
	require.NoError(t, svc.Issue(context.Background(), lot.ID, 4, "Aspirin"))
	require.NoError(t, svc.Return(context.Background(), lot.ID, 4))

	got, err := svc.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Quantity)
}

func TestLot_IsExpired(t *testing.T) {
	lot := &Lot{ExpiryDate: date(2026, time.June, 15)}

	assert.False(t, lot.IsExpired(date(2026, time.June, 15)))
	assert.False(t, lot.IsExpired(date(2026, time.January, 1)))
	assert.True(t, lot.IsExpired(date(2026, time.June, 16)))
}
