package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/quickentry"
	"github.com/dukan-app/dukan/internal/service"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ErrorCodeToHTTPStatus(tt.code); got != tt.expected {
				t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.expected)
			}
		})
	}
}

// stubProducts serves a fixed catalog.
type stubProducts struct {
	catalog []domain.Product
}

func (s *stubProducts) ListAvailable(context.Context) ([]domain.Product, error) {
	return s.catalog, nil
}

func (s *stubProducts) Snapshot(context.Context) (domain.Snapshot, error) {
	return domain.NewSnapshot(s.catalog), nil
}

// stubSaleStore accepts every write and remembers the last sale.
type stubSaleStore struct {
	lastSale *domain.Sale
}

func (s *stubSaleStore) CancelSale(_ context.Context, id int64) error {
	if s.lastSale == nil || s.lastSale.ID != id {
		return domain.NotFound("sale.cancel", "sale", "")
	}
	s.lastSale.Status = domain.SaleStatusCancelled
	return nil
}

func (s *stubSaleStore) CreateSale(_ context.Context, sale *domain.Sale, invoice *domain.Invoice) error {
	sale.ID = 1
	invoice.ID = 1
	s.lastSale = sale
	return nil
}

func (s *stubSaleStore) UpdateSale(context.Context, *domain.Sale) error { return nil }

func (s *stubSaleStore) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	if s.lastSale != nil && s.lastSale.ID == id {
		return s.lastSale, nil
	}
	return nil, domain.NotFound("sale.get", "sale", "")
}

func (s *stubSaleStore) ListSales(context.Context) ([]domain.SaleListItem, error) {
	return nil, nil
}

func (s *stubSaleStore) CompletedTotalsBetween(context.Context, time.Time, time.Time) ([]domain.SaleTotals, error) {
	return nil, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) {}
func (noopPublisher) Close()              {}

func testServer(t *testing.T, store *stubSaleStore) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := &stubProducts{catalog: []domain.Product{
		{ID: 1, Name: "green tea", SellingPrice: 12, CostPrice: 5, AvailableStock: 5},
		{ID: 2, Name: "black tea", SellingPrice: 8, CostPrice: 3, AvailableStock: 0},
	}}

	productService := service.NewProductService(productStoreAdapter{products})
	saleService := service.NewSaleService(store, products, noopPublisher{}, logger)
	reportService := service.NewReportService(store)
	drafts := service.NewDraftManager(products, quickentry.Matcher{}, time.Hour)

	mux := http.NewServeMux()
	draftHandler := NewDraftHandler(drafts, saleService, logger)
	saleHandler := NewSaleHandler(saleService, reportService, logger)
	productHandler := NewProductHandler(productService, logger)

	invoices := service.NewInvoiceService(&stubInvoiceStore{})
	invoiceHandler := NewInvoiceHandler(invoices, logger)

	mux.HandleFunc("GET /api/products/available", productHandler.List)
	mux.HandleFunc("POST /api/products", productHandler.Create)
	mux.HandleFunc("GET /api/products/{id}", productHandler.Get)
	mux.HandleFunc("PUT /api/products/{id}", productHandler.Update)
	mux.HandleFunc("DELETE /api/products/{id}", productHandler.Archive)
	mux.HandleFunc("POST /api/drafts", draftHandler.Create)
	mux.HandleFunc("GET /api/drafts/{id}", draftHandler.Get)
	mux.HandleFunc("PATCH /api/drafts/{id}", draftHandler.Update)
	mux.HandleFunc("POST /api/drafts/{id}/items", draftHandler.AddItem)
	mux.HandleFunc("PATCH /api/drafts/{id}/items/{index}", draftHandler.UpdateItem)
	mux.HandleFunc("DELETE /api/drafts/{id}/items/{index}", draftHandler.DeleteItem)
	mux.HandleFunc("POST /api/drafts/{id}/quick-entry", draftHandler.QuickEntry)
	mux.HandleFunc("POST /api/drafts/{id}/submit", draftHandler.Submit)
	mux.HandleFunc("POST /api/sales/quick", saleHandler.QuickSale)
	mux.HandleFunc("POST /api/sales/{id}/cancel", saleHandler.Cancel)
	mux.HandleFunc("GET /api/invoices", invoiceHandler.List)
	mux.HandleFunc("GET /api/invoices/{id}", invoiceHandler.Get)
	mux.HandleFunc("POST /api/invoices/{id}/print", invoiceHandler.MarkPrinted)
	return mux
}

// stubInvoiceStore holds one fixed invoice.
type stubInvoiceStore struct{}

func (stubInvoiceStore) invoice() *domain.Invoice {
	return &domain.Invoice{ID: 1, InvoiceNumber: "INV-20250314-AB12", SaleID: 1}
}

func (s *stubInvoiceStore) List(context.Context) ([]domain.Invoice, error) {
	return []domain.Invoice{*s.invoice()}, nil
}

func (s *stubInvoiceStore) Get(_ context.Context, id int64) (*domain.Invoice, error) {
	if id != 1 {
		return nil, domain.NotFound("invoice.get", "invoice", "")
	}
	return s.invoice(), nil
}

func (s *stubInvoiceStore) MarkPrinted(_ context.Context, id int64) (*domain.Invoice, error) {
	if id != 1 {
		return nil, domain.NotFound("invoice.get", "invoice", "")
	}
	inv := s.invoice()
	inv.IsPrinted = true
	now := time.Now()
	inv.PrintedAt = &now
	return inv, nil
}

// productStoreAdapter exposes stubProducts through the store interface.
type productStoreAdapter struct {
	products *stubProducts
}

func (a productStoreAdapter) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	return a.products.ListAvailable(ctx)
}

func (a productStoreAdapter) Get(ctx context.Context, id int64) (*domain.Product, error) {
	for _, p := range a.products.catalog {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.NotFound("product.get", "product", "")
}

func (a productStoreAdapter) Create(_ context.Context, p *domain.Product) error {
	p.ID = int64(len(a.products.catalog) + 1)
	p.IsActive = true
	a.products.catalog = append(a.products.catalog, *p)
	return nil
}

func (a productStoreAdapter) Update(_ context.Context, p *domain.Product) error {
	for i, existing := range a.products.catalog {
		if existing.ID == p.ID {
			p.IsActive = existing.IsActive
			a.products.catalog[i] = *p
			return nil
		}
	}
	return domain.NotFound("product.update", "product", "")
}

func (a productStoreAdapter) Archive(_ context.Context, id int64) error {
	for i, existing := range a.products.catalog {
		if existing.ID == id {
			a.products.catalog[i].IsActive = false
			return nil
		}
	}
	return domain.NotFound("product.archive", "product", "")
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

func Test_DraftFlow_AddCapSubmit(t *testing.T) {
	store := &stubSaleStore{}
	h := testServer(t, store)

	rec := doJSON(t, h, http.MethodPost, "/api/drafts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created service.DraftState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// Requesting 9 of a product with 5 in stock caps the line.
	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+created.ID+"/items",
		map[string]any{"product_id": 1, "quantity": 9, "notify": true})
	require.Equal(t, http.StatusOK, rec.Code)
	var item itemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "capped", string(item.Outcome.Kind))
	assert.Equal(t, 5, item.Outcome.Applied)
	require.NotNil(t, item.Outcome.Warning)
	assert.Contains(t, item.Outcome.Warning.Message(), "(9)")
	assert.Contains(t, item.Outcome.Warning.Message(), "(5)")

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+created.ID+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, store.lastSale)
	assert.Equal(t, 60.0, store.lastSale.Subtotal)
	assert.Equal(t, 25.0, store.lastSale.TotalCost)

	// Session is consumed by submission.
	rec = doJSON(t, h, http.MethodGet, "/api/drafts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_DraftFlow_OutOfStockRejected(t *testing.T) {
	h := testServer(t, &stubSaleStore{})

	rec := doJSON(t, h, http.MethodPost, "/api/drafts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created service.DraftState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+created.ID+"/items",
		map[string]any{"product_id": 2, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	var item itemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "rejected", string(item.Outcome.Kind))
	assert.Empty(t, item.State.Draft.Items)
}

func Test_DraftSubmit_EmptyDraftRestoresSession(t *testing.T) {
	h := testServer(t, &stubSaleStore{})

	rec := doJSON(t, h, http.MethodPost, "/api/drafts", nil)
	var created service.DraftState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+created.ID+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The failed submit must not eat the session.
	rec = doJSON(t, h, http.MethodGet, "/api/drafts/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_QuickEntry_CommitsUniqueMatch(t *testing.T) {
	h := testServer(t, &stubSaleStore{})

	rec := doJSON(t, h, http.MethodPost, "/api/drafts", nil)
	var created service.DraftState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+created.ID+"/quick-entry",
		map[string]any{"input": "green 3"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp quickEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result.Outcome)
	assert.Equal(t, "applied", string(resp.Result.Outcome.Kind))
	require.Len(t, resp.State.Draft.Items, 1)
	assert.Equal(t, 3, resp.State.Draft.Items[0].Quantity)
}

func Test_QuickSale_ForcesTaxZero(t *testing.T) {
	store := &stubSaleStore{}
	h := testServer(t, store)

	rec := doJSON(t, h, http.MethodPost, "/api/sales/quick", map[string]any{
		"items": []map[string]any{
			{"product_id": 1, "quantity": 2, "unit_price": 12, "unit_cost": 5},
		},
		"discount_amount": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result service.QuickSaleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 20.0, result.FinalTotal)
	require.NotNil(t, store.lastSale)
	assert.Equal(t, 0.0, store.lastSale.TaxPercentage)
}

func Test_ProductCreateAndArchive(t *testing.T) {
	h := testServer(t, &stubSaleStore{})

	rec := doJSON(t, h, http.MethodPost, "/api/products", map[string]any{
		"name":           "oolong tea",
		"selling_price":  14,
		"cost_price":     6,
		"stock_quantity": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created managedProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.IsActive)
	require.NotZero(t, created.ID)

	rec = doJSON(t, h, http.MethodDelete, "/api/products/"+strconv.FormatInt(created.ID, 10), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Archiving keeps the record readable.
	rec = doJSON(t, h, http.MethodGet, "/api/products/"+strconv.FormatInt(created.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched managedProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.False(t, fetched.IsActive)
}

func Test_ProductCreate_RejectsMissingName(t *testing.T) {
	h := testServer(t, &stubSaleStore{})

	rec := doJSON(t, h, http.MethodPost, "/api/products", map[string]any{
		"selling_price": 14,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_SaleCancel_RestoresStatus(t *testing.T) {
	store := &stubSaleStore{}
	h := testServer(t, store)

	rec := doJSON(t, h, http.MethodPost, "/api/sales/quick", map[string]any{
		"items": []map[string]any{
			{"product_id": 1, "quantity": 1, "unit_price": 12, "unit_cost": 5},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/sales/1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled domain.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, domain.SaleStatusCancelled, cancelled.Status)

	rec = doJSON(t, h, http.MethodPost, "/api/sales/99/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_InvoiceMarkPrinted(t *testing.T) {
	h := testServer(t, &stubSaleStore{})

	rec := doJSON(t, h, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var invoices []domain.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
	require.Len(t, invoices, 1)
	assert.False(t, invoices[0].IsPrinted)

	rec = doJSON(t, h, http.MethodPost, "/api/invoices/1/print", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var printed domain.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &printed))
	assert.True(t, printed.IsPrinted)
	require.NotNil(t, printed.PrintedAt)
}

func Test_AddItem_ValidationRejectsMissingProduct(t *testing.T) {
	h := testServer(t, &stubSaleStore{})

	rec := doJSON(t, h, http.MethodPost, "/api/drafts", nil)
	var created service.DraftState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+created.ID+"/items",
		map[string]any{"quantity": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EINVALID, body.Code)
}
