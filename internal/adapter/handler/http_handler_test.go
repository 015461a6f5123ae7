package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/24f2006233/vyappar-smart/internal/adapter/storage"
	"github.com/24f2006233/vyappar-smart/internal/core/domain"
	"github.com/24f2006233/vyappar-smart/internal/core/service"
	"github.com/24f2006233/vyappar-smart/internal/port"
	"github.com/24f2006233/vyappar-smart/pkg/logger"
)

type downStore struct {
	*storage.MemoryAdapter
}

func (downStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.Join(domain.ErrStorageUnavailable, errors.New("disk gone"))
}

func (downStore) Ping(context.Context) error {
	return domain.ErrStorageUnavailable
}

// failingInventoryStore accepts every write except to the inventory collection
// once failInventory is set.
type failingInventoryStore struct {
	*storage.MemoryAdapter
	failInventory bool
}

func (f *failingInventoryStore) Store(ctx context.Context, key string, data []byte) error {
	if f.failInventory && key == storage.InventoryKey {
		return fmt.Errorf("write %s: %w", key, domain.ErrStorageUnavailable)
	}
	return f.MemoryAdapter.Store(ctx, key, data)
}

func newTestRouter(t *testing.T, kv port.KVStore) http.Handler {
	t.Helper()
	collections := storage.NewCollections(kv, "")
	inventory := service.NewInventoryService(collections)
	invoices := service.NewInvoiceService(collections, inventory)
	analytics := service.NewAnalyticsService(inventory, invoices)
	return NewHTTPHandler(inventory, invoices, analytics, kv, logger.Nop()).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func addWidget(t *testing.T, h http.Handler, quantity int) domain.InventoryItem {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/inventory",
		map[string]any{"name": "Widget", "quantity": quantity, "price": 50})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item domain.InventoryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	return item
}

func TestHealthCheck(t *testing.T) {
	rec := doJSON(t, newTestRouter(t, storage.NewMemoryAdapter()), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doJSON(t, newTestRouter(t, downStore{storage.NewMemoryAdapter()}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInventoryEndpoints(t *testing.T) {
	h := newTestRouter(t, storage.NewMemoryAdapter())
	item := addWidget(t, h, 10)
	assert.NotEmpty(t, item.ID)

	rec := doJSON(t, h, http.MethodPatch, "/api/inventory/"+item.ID, map[string]any{"quantity": 4})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/inventory/"+item.ID+"/reduce", map[string]any{"amount": 10})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []domain.InventoryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].Quantity)

	rec = doJSON(t, h, http.MethodDelete, "/api/inventory/"+item.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, h, http.MethodDelete, "/api/inventory/"+item.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAddItem_ValidationError(t *testing.T) {
	h := newTestRouter(t, storage.NewMemoryAdapter())

	rec := doJSON(t, h, http.MethodPost, "/api/inventory", map[string]any{"name": "", "quantity": 1, "price": 5})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "name", resp.Field)

	rec = doJSON(t, h, http.MethodPost, "/api/inventory", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInvoice(t *testing.T) {
	h := newTestRouter(t, storage.NewMemoryAdapter())
	item := addWidget(t, h, 10)

	rec := doJSON(t, h, http.MethodPost, "/api/invoices", CreateInvoiceRequest{
		CustomerName: "Acme",
		Items:        []domain.LineRequest{{ItemID: item.ID, Quantity: 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var inv domain.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, "150", inv.Total.String())

	rec = doJSON(t, h, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var invoices []domain.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
	require.Len(t, invoices, 1)

	rec = doJSON(t, h, http.MethodDelete, "/api/invoices/"+inv.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateInvoice_InsufficientStock(t *testing.T) {
	h := newTestRouter(t, storage.NewMemoryAdapter())
	item := addWidget(t, h, 2)

	rec := doJSON(t, h, http.MethodPost, "/api/invoices", CreateInvoiceRequest{
		CustomerName: "Acme",
		Items:        []domain.LineRequest{{ItemID: item.ID, Quantity: 3}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/invoices", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateInvoice_MissingCustomer(t *testing.T) {
	h := newTestRouter(t, storage.NewMemoryAdapter())
	item := addWidget(t, h, 2)

	rec := doJSON(t, h, http.MethodPost, "/api/invoices", CreateInvoiceRequest{
		Items: []domain.LineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	h := newTestRouter(t, storage.NewMemoryAdapter())

	rec := doJSON(t, h, http.MethodGet, "/api/analytics/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["insights"], 1)

	addWidget(t, h, 3)

	rec = doJSON(t, h, http.MethodGet, "/api/analytics/low-stock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var low []domain.InventoryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &low))
	require.Len(t, low, 1)

	rec = doJSON(t, h, http.MethodGet, "/api/analytics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary service.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.ItemCount)
	assert.Nil(t, summary.TopProduct)
}

func TestStorageFailureIsSurfaced(t *testing.T) {
	h := newTestRouter(t, downStore{storage.NewMemoryAdapter()})

	rec := doJSON(t, h, http.MethodGet, "/api/inventory", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCorruptDataIsSurfaced(t *testing.T) {
	kv := storage.NewMemoryAdapter()
	require.NoError(t, kv.Store(context.Background(), storage.InvoicesKey, []byte("not json")))
	h := newTestRouter(t, kv)

	rec := doJSON(t, h, http.MethodGet, "/api/invoices", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "corrupt")
}

func TestCreateInvoice_StockNotDeductedReturnsInvoice(t *testing.T) {
	kv := &failingInventoryStore{MemoryAdapter: storage.NewMemoryAdapter()}
	h := newTestRouter(t, kv)
	item := addWidget(t, h, 10)
	kv.failInventory = true

	rec := doJSON(t, h, http.MethodPost, "/api/invoices", CreateInvoiceRequest{
		CustomerName: "Acme",
		Items:        []domain.LineRequest{{ItemID: item.ID, Quantity: 3}},
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	var resp PartialInvoiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "invoice recorded but stock not deducted", resp.Message)
	require.NotEmpty(t, resp.Invoice.ID)
	assert.Equal(t, "150", resp.Invoice.Total.String())

	rec = doJSON(t, h, http.MethodGet, "/api/invoices", nil)
	var invoices []domain.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
	require.Len(t, invoices, 1)
	assert.Equal(t, resp.Invoice.ID, invoices[0].ID)

	rec = doJSON(t, h, http.MethodGet, "/api/inventory", nil)
	var items []domain.InventoryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestReduceItem_NegativeAmountRejected(t *testing.T) {
	h := newTestRouter(t, storage.NewMemoryAdapter())
	item := addWidget(t, h, 10)

	rec := doJSON(t, h, http.MethodPost, "/api/inventory/"+item.ID+"/reduce", map[string]any{"amount": -5})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "amount", resp.Field)
}
