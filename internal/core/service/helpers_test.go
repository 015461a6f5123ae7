package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/24f2006233/vyappar-smart/internal/adapter/storage"
	"github.com/24f2006233/vyappar-smart/internal/core/domain"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Set(t time.Time) { c.now = t }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	clock       *testClock
	kv          *storage.MemoryAdapter
	collections *storage.Collections
	inventory   *InventoryService
	invoices    *InvoiceService
	analytics   *AnalyticsService
}

var baseTime = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	clock := &testClock{now: baseTime}
	kv := storage.NewMemoryAdapter()
	collections := storage.NewCollections(kv, "")

	opts = append([]Option{WithClock(clock.Now), WithLocation(time.UTC)}, opts...)
	inventory := NewInventoryService(collections, opts...)
	invoices := NewInvoiceService(collections, inventory, opts...)

	return &testEnv{
		clock:       clock,
		kv:          kv,
		collections: collections,
		inventory:   inventory,
		invoices:    invoices,
		analytics:   NewAnalyticsService(inventory, invoices, opts...),
	}
}

func (e *testEnv) addItem(t *testing.T, name string, quantity int, price string) domain.InventoryItem {
	t.Helper()
	item, err := e.inventory.Add(context.Background(), name, quantity, decimal.RequireFromString(price))
	require.NoError(t, err)
	return item
}

func (e *testEnv) quantityOf(t *testing.T, id string) int {
	t.Helper()
	item, found, err := e.inventory.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found, "item %s not found", id)
	return item.Quantity
}

func (e *testEnv) sell(t *testing.T, at time.Time, customer string, lines ...domain.LineRequest) domain.Invoice {
	t.Helper()
	e.clock.Set(at)
	inv, err := e.invoices.Create(context.Background(), customer, lines)
	require.NoError(t, err)
	return inv
}

func line(itemID string, quantity int) domain.LineRequest {
	return domain.LineRequest{ItemID: itemID, Quantity: quantity}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
