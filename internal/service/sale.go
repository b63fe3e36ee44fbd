package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/events"
	"github.com/dukan-app/dukan/internal/pricing"
)

// SaleStore is the persistence surface the sale service consumes.
type SaleStore interface {
	CreateSale(ctx context.Context, sale *domain.Sale, invoice *domain.Invoice) error
	UpdateSale(ctx context.Context, sale *domain.Sale) error
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	CancelSale(ctx context.Context, id int64) error
	ListSales(ctx context.Context) ([]domain.SaleListItem, error)
	CompletedTotalsBetween(ctx context.Context, from, to time.Time) ([]domain.SaleTotals, error)
}

// SaleService turns submitted drafts into persisted sales and invoices.
type SaleService struct {
	store     SaleStore
	products  domain.ProductService
	publisher events.Publisher
	logger    *slog.Logger

	// now is swappable in tests; production uses time.Now.
	now func() time.Time
}

func NewSaleService(store SaleStore, products domain.ProductService, publisher events.Publisher, logger *slog.Logger) *SaleService {
	return &SaleService{
		store:     store,
		products:  products,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitDraft validates a draft, prices it against a fresh catalog snapshot,
// and persists it as a completed sale with an invoice. When saleID is
// non-zero the existing sale is updated in place and keeps its numbers.
//
// Stock is re-verified inside the store transaction; a product that sold out
// between the draft's snapshot and submission surfaces as a conflict.
func (s *SaleService) SubmitDraft(ctx context.Context, draft domain.SaleDraft, saleID int64) (*domain.Sale, *domain.Invoice, error) {
	if err := validateDraft(draft); err != nil {
		return nil, nil, err
	}

	snap, err := s.products.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	breakdown := pricing.ComputeDraft(draft, snap)

	now := s.now()
	sale := &domain.Sale{
		SaleDate:        now,
		CustomerName:    draft.CustomerName,
		CustomerPhone:   draft.CustomerPhone,
		CustomerAddress: draft.CustomerAddress,
		PaymentMethod:   draft.PaymentMethod,
		Status:          domain.SaleStatusCompleted,
		DiscountAmount:  draft.DiscountAmount,
		TaxPercentage:   draft.TaxPercentage,
		Notes:           draft.Notes,
		Items:           draft.Items,
		Subtotal:        breakdown.Subtotal,
		TotalCost:       breakdown.TotalCost,
		TaxAmount:       breakdown.TaxAmount,
		FinalTotal:      breakdown.FinalTotal,
		NetProfit:       breakdown.NetProfit,
	}

	if saleID > 0 {
		existing, err := s.store.GetSale(ctx, saleID)
		if err != nil {
			return nil, nil, err
		}
		sale.ID = existing.ID
		sale.SaleNumber = existing.SaleNumber
		sale.SaleDate = existing.SaleDate
		sale.Status = existing.Status
		if err := s.store.UpdateSale(ctx, sale); err != nil {
			return nil, nil, err
		}
		s.logger.Info("sale updated", "sale_id", sale.ID, "sale_number", sale.SaleNumber)
		return sale, nil, nil
	}

	sale.SaleNumber = saleNumber(now)
	invoice := &domain.Invoice{
		InvoiceNumber: invoiceNumber(now),
		InvoiceDate:   now,
	}
	if err := s.store.CreateSale(ctx, sale, invoice); err != nil {
		return nil, nil, err
	}

	s.logger.Info("sale created",
		"sale_id", sale.ID,
		"sale_number", sale.SaleNumber,
		"invoice_number", invoice.InvoiceNumber,
		"final_total", sale.FinalTotal)

	s.publishCompleted(sale, invoice, snap)
	return sale, invoice, nil
}

// QuickSaleResult is the condensed response of the one-shot quick-sale flow.
type QuickSaleResult struct {
	SaleID        int64   `json:"sale_id"`
	SaleNumber    string  `json:"sale_number"`
	InvoiceNumber string  `json:"invoice_number"`
	FinalTotal    float64 `json:"final_total"`
	NetProfit     float64 `json:"net_profit"`
}

// CreateQuickSale persists a walk-in sale in one call. Tax is always zero;
// customer details and discount are optional.
func (s *SaleService) CreateQuickSale(ctx context.Context, draft domain.SaleDraft) (*QuickSaleResult, error) {
	draft.TaxPercentage = 0
	if draft.PaymentMethod == "" {
		draft.PaymentMethod = domain.PaymentCash
	}

	sale, invoice, err := s.SubmitDraft(ctx, draft, 0)
	if err != nil {
		return nil, err
	}
	return &QuickSaleResult{
		SaleID:        sale.ID,
		SaleNumber:    sale.SaleNumber,
		InvoiceNumber: invoice.InvoiceNumber,
		FinalTotal:    sale.FinalTotal,
		NetProfit:     sale.NetProfit,
	}, nil
}

// GetSale returns one sale with its items.
func (s *SaleService) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return s.store.GetSale(ctx, id)
}

// CancelSale voids a sale and returns its stock to the catalog. Cancelling
// an already-cancelled sale is a conflict. The refreshed sale is returned so
// callers see the new status without a second round trip.
func (s *SaleService) CancelSale(ctx context.Context, id int64) (*domain.Sale, error) {
	if err := s.store.CancelSale(ctx, id); err != nil {
		return nil, err
	}
	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sale cancelled", "sale_id", sale.ID, "sale_number", sale.SaleNumber)
	return sale, nil
}

// ListSales returns all sales, newest first.
func (s *SaleService) ListSales(ctx context.Context) ([]domain.SaleListItem, error) {
	return s.store.ListSales(ctx)
}

func (s *SaleService) publishCompleted(sale *domain.Sale, invoice *domain.Invoice, snap domain.Snapshot) {
	now := s.now()
	s.publisher.Publish(events.SubjectSaleCompleted, events.SaleCompleted{
		SaleID:        sale.ID,
		SaleNumber:    sale.SaleNumber,
		InvoiceNumber: invoice.InvoiceNumber,
		FinalTotal:    sale.FinalTotal,
		NetProfit:     sale.NetProfit,
		OccurredAt:    now,
	})

	for _, item := range sale.Items {
		p, ok := snap.Lookup(item.ProductID)
		if !ok {
			continue
		}
		remaining := p.AvailableStock - item.Quantity
		if remaining > p.LowStockThreshold {
			continue
		}
		s.publisher.Publish(events.SubjectStockLow, events.StockLow{
			ProductID:  p.ID,
			Name:       p.Name,
			Remaining:  remaining,
			OccurredAt: now,
		})
	}
}

func validateDraft(draft domain.SaleDraft) error {
	const op = "sale.submit"
	if len(draft.Items) == 0 {
		return domain.Invalid(op, "sale must contain at least one item")
	}
	if !domain.ValidPaymentMethod(draft.PaymentMethod) {
		return domain.Invalid(op, "invalid payment method")
	}
	for i, item := range draft.Items {
		if item.Quantity < 1 {
			return domain.Invalid(op, fmt.Sprintf("item %d has non-positive quantity", i+1))
		}
		if item.UnitPrice < 0 {
			return domain.Invalid(op, fmt.Sprintf("item %d has negative unit price", i+1))
		}
	}
	if draft.DiscountAmount < 0 {
		return domain.Invalid(op, "discount cannot be negative")
	}
	if draft.TaxPercentage < 0 || draft.TaxPercentage > 100 {
		return domain.Invalid(op, "tax percentage must be between 0 and 100")
	}
	return nil
}

func saleNumber(t time.Time) string {
	return fmt.Sprintf("S-%s-%s", t.Format("20060102"), numberSuffix())
}

func invoiceNumber(t time.Time) string {
	return fmt.Sprintf("INV-%s-%s", t.Format("20060102"), numberSuffix())
}

func numberSuffix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:4])
}
