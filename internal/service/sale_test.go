package service

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "espresso beans", SellingPrice: 10, CostPrice: 4, AvailableStock: 20, LowStockThreshold: 5},
		{ID: 2, Name: "filter papers", SellingPrice: 3, CostPrice: 1, AvailableStock: 6, LowStockThreshold: 5},
	}
}

func Test_SubmitDraft_CreatesSaleAndInvoice(t *testing.T) {
	var stored *domain.Sale
	store := &mockSaleStore{
		CreateSaleFn: func(_ context.Context, sale *domain.Sale, invoice *domain.Invoice) error {
			sale.ID = 42
			invoice.ID = 7
			stored = sale
			return nil
		},
	}
	pub := &recordingPublisher{}
	svc := NewSaleService(store, staticProducts(testCatalog()...), pub, discardLogger())
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }

	draft := domain.SaleDraft{
		Items: []domain.LineItem{
			{ProductID: 1, Quantity: 3, UnitPrice: 10, UnitCost: 4},
		},
		PaymentMethod:  domain.PaymentCash,
		DiscountAmount: 5,
	}

	sale, invoice, err := svc.SubmitDraft(context.Background(), draft, 0)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, int64(42), sale.ID)
	assert.Regexp(t, regexp.MustCompile(`^S-20250314-[0-9A-F]{4}$`), sale.SaleNumber)
	assert.Regexp(t, regexp.MustCompile(`^INV-20250314-[0-9A-F]{4}$`), invoice.InvoiceNumber)
	assert.Equal(t, domain.SaleStatusCompleted, sale.Status)
	assert.Equal(t, 30.0, sale.Subtotal)
	assert.Equal(t, 12.0, sale.TotalCost)
	assert.Equal(t, 25.0, sale.FinalTotal)
	assert.Equal(t, 13.0, sale.NetProfit)
}

func Test_SubmitDraft_PublishesCompletedEvent(t *testing.T) {
	store := &mockSaleStore{
		CreateSaleFn: func(_ context.Context, sale *domain.Sale, _ *domain.Invoice) error {
			sale.ID = 1
			return nil
		},
	}
	pub := &recordingPublisher{}
	svc := NewSaleService(store, staticProducts(testCatalog()...), pub, discardLogger())

	draft := domain.SaleDraft{
		Items:         []domain.LineItem{{ProductID: 1, Quantity: 2, UnitPrice: 10, UnitCost: 4}},
		PaymentMethod: domain.PaymentCard,
	}
	_, _, err := svc.SubmitDraft(context.Background(), draft, 0)
	require.NoError(t, err)

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, events.SubjectSaleCompleted, pub.subjects[0])
}

func Test_SubmitDraft_PublishesStockLowEvent(t *testing.T) {
	store := &mockSaleStore{
		CreateSaleFn: func(_ context.Context, sale *domain.Sale, _ *domain.Invoice) error {
			return nil
		},
	}
	pub := &recordingPublisher{}
	svc := NewSaleService(store, staticProducts(testCatalog()...), pub, discardLogger())

	// Product 2 has 6 in stock with a threshold of 5: selling 2 drops it to 4.
	draft := domain.SaleDraft{
		Items:         []domain.LineItem{{ProductID: 2, Quantity: 2, UnitPrice: 3, UnitCost: 1}},
		PaymentMethod: domain.PaymentCash,
	}
	_, _, err := svc.SubmitDraft(context.Background(), draft, 0)
	require.NoError(t, err)

	require.Len(t, pub.subjects, 2)
	assert.Equal(t, events.SubjectStockLow, pub.subjects[1])
	low := pub.payloads[1].(events.StockLow)
	assert.Equal(t, int64(2), low.ProductID)
	assert.Equal(t, 4, low.Remaining)
}

func Test_SubmitDraft_ValidationErrors(t *testing.T) {
	svc := NewSaleService(&mockSaleStore{}, staticProducts(testCatalog()...), &recordingPublisher{}, discardLogger())

	tests := []struct {
		name  string
		draft domain.SaleDraft
	}{
		{
			name:  "no items",
			draft: domain.SaleDraft{PaymentMethod: domain.PaymentCash},
		},
		{
			name: "zero quantity",
			draft: domain.SaleDraft{
				Items:         []domain.LineItem{{ProductID: 1, Quantity: 0, UnitPrice: 10}},
				PaymentMethod: domain.PaymentCash,
			},
		},
		{
			name: "negative price",
			draft: domain.SaleDraft{
				Items:         []domain.LineItem{{ProductID: 1, Quantity: 1, UnitPrice: -1}},
				PaymentMethod: domain.PaymentCash,
			},
		},
		{
			name: "bad payment method",
			draft: domain.SaleDraft{
				Items:         []domain.LineItem{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
				PaymentMethod: "barter",
			},
		},
		{
			name: "tax percentage above 100",
			draft: domain.SaleDraft{
				Items:         []domain.LineItem{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
				PaymentMethod: domain.PaymentCash,
				TaxPercentage: 101,
			},
		},
		{
			name: "negative discount",
			draft: domain.SaleDraft{
				Items:          []domain.LineItem{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
				PaymentMethod:  domain.PaymentCash,
				DiscountAmount: -1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.SubmitDraft(context.Background(), tt.draft, 0)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func Test_SubmitDraft_UpdateKeepsSaleNumber(t *testing.T) {
	existing := &domain.Sale{
		ID:         9,
		SaleNumber: "S-20250101-AB12",
		SaleDate:   time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		Status:     domain.SaleStatusCompleted,
	}
	var updated *domain.Sale
	store := &mockSaleStore{
		GetSaleFn: func(_ context.Context, id int64) (*domain.Sale, error) {
			return existing, nil
		},
		UpdateSaleFn: func(_ context.Context, sale *domain.Sale) error {
			updated = sale
			return nil
		},
	}
	pub := &recordingPublisher{}
	svc := NewSaleService(store, staticProducts(testCatalog()...), pub, discardLogger())

	draft := domain.SaleDraft{
		Items:         []domain.LineItem{{ProductID: 1, Quantity: 1, UnitPrice: 10, UnitCost: 4}},
		PaymentMethod: domain.PaymentCash,
	}
	sale, invoice, err := svc.SubmitDraft(context.Background(), draft, 9)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Nil(t, invoice)
	assert.Equal(t, "S-20250101-AB12", sale.SaleNumber)
	assert.Equal(t, existing.SaleDate, sale.SaleDate)
	assert.Empty(t, pub.subjects)
}

func Test_CreateQuickSale_ForcesTaxToZero(t *testing.T) {
	var stored *domain.Sale
	store := &mockSaleStore{
		CreateSaleFn: func(_ context.Context, sale *domain.Sale, invoice *domain.Invoice) error {
			sale.ID = 5
			stored = sale
			return nil
		},
	}
	svc := NewSaleService(store, staticProducts(testCatalog()...), &recordingPublisher{}, discardLogger())

	draft := domain.SaleDraft{
		Items:         []domain.LineItem{{ProductID: 1, Quantity: 2, UnitPrice: 10, UnitCost: 4}},
		TaxPercentage: 15,
	}
	result, err := svc.CreateQuickSale(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, 0.0, stored.TaxPercentage)
	assert.Equal(t, 0.0, stored.TaxAmount)
	assert.Equal(t, domain.PaymentCash, stored.PaymentMethod)
	assert.Equal(t, int64(5), result.SaleID)
	assert.Equal(t, 20.0, result.FinalTotal)
	assert.Equal(t, 12.0, result.NetProfit)
}

func Test_SubmitDraft_StockConflictSurfaces(t *testing.T) {
	store := &mockSaleStore{
		CreateSaleFn: func(context.Context, *domain.Sale, *domain.Invoice) error {
			return domain.Conflict("sale.stock", "insufficient stock for product 1")
		},
	}
	pub := &recordingPublisher{}
	svc := NewSaleService(store, staticProducts(testCatalog()...), pub, discardLogger())

	draft := domain.SaleDraft{
		Items:         []domain.LineItem{{ProductID: 1, Quantity: 3, UnitPrice: 10, UnitCost: 4}},
		PaymentMethod: domain.PaymentCash,
	}
	_, _, err := svc.SubmitDraft(context.Background(), draft, 0)
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Empty(t, pub.subjects)
}

func Test_CancelSale_ReturnsRefreshedSale(t *testing.T) {
	cancelled := map[int64]bool{}
	store := &mockSaleStore{
		CancelSaleFn: func(_ context.Context, id int64) error {
			if cancelled[id] {
				return domain.Conflict("sale.cancel", "sale is already cancelled")
			}
			cancelled[id] = true
			return nil
		},
		GetSaleFn: func(_ context.Context, id int64) (*domain.Sale, error) {
			return &domain.Sale{ID: id, SaleNumber: "S-20250314-AB12", Status: domain.SaleStatusCancelled}, nil
		},
	}
	svc := NewSaleService(store, staticProducts(testCatalog()...), &recordingPublisher{}, discardLogger())

	sale, err := svc.CancelSale(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCancelled, sale.Status)

	// Cancelling twice is a conflict, not a silent no-op.
	_, err = svc.CancelSale(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func Test_DailySummary_AggregatesCompletedSales(t *testing.T) {
	store := &mockSaleStore{
		CompletedTotalsBetweenFn: func(_ context.Context, from, to time.Time) ([]domain.SaleTotals, error) {
			assert.Equal(t, 24*time.Hour, to.Sub(from))
			return []domain.SaleTotals{
				{FinalTotal: 10.1, TotalCost: 4.2, NetProfit: 5.9},
				{FinalTotal: 20.2, TotalCost: 8.1, NetProfit: 12.1},
				{FinalTotal: 0.1, TotalCost: 0.2, NetProfit: -0.1},
			}, nil
		},
	}
	svc := NewReportService(store)

	summary, err := svc.DailySummary(context.Background(), time.Date(2025, 3, 14, 13, 45, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2025-03-14", summary.Date)
	assert.Equal(t, 3, summary.SalesCount)
	assert.Equal(t, 30.4, summary.TotalRevenue)
	assert.Equal(t, 12.5, summary.TotalCost)
	assert.Equal(t, 17.9, summary.TotalProfit)
}
