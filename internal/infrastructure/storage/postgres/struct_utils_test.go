package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

type mockTimestamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type mockDocument struct {
	mockTimestamps
	ID        id.ID       `db:"id"`
	Number    string      `db:"invoice_number"`
	TotalCost types.Money `db:"total_cost"`
	Lines     []string    `db:"-"`
	internal  string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	assert.Equal(t, []string{"created_at", "updated_at", "id", "invoice_number", "total_cost"}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	doc := mockDocument{
		mockTimestamps: mockTimestamps{CreatedAt: now, UpdatedAt: now},
		ID:             id.New(),
		Number:         "INV-2026-00001",
		TotalCost:      types.MustMoney("46.00"),
		Lines:          []string{"ignored"},
		internal:       "ignored",
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, "INV-2026-00001", m["invoice_number"])
	assert.Equal(t, doc.TotalCost, m["total_cost"])
	assert.Equal(t, now, m["created_at"])
	assert.NotContains(t, m, "Lines")
	assert.NotContains(t, m, "internal")
	assert.Len(t, m, 5)
}
