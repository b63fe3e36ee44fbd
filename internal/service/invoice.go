package service

import (
	"context"

	"github.com/dukan-app/dukan/internal/domain"
)

// InvoiceStore is the persistence surface the invoice service consumes.
type InvoiceStore interface {
	List(ctx context.Context) ([]domain.Invoice, error)
	Get(ctx context.Context, id int64) (*domain.Invoice, error)
	MarkPrinted(ctx context.Context, id int64) (*domain.Invoice, error)
}

// InvoiceService exposes the invoices generated alongside sales.
type InvoiceService struct {
	store InvoiceStore
}

func NewInvoiceService(store InvoiceStore) *InvoiceService {
	return &InvoiceService{store: store}
}

// List returns all invoices, newest first.
func (s *InvoiceService) List(ctx context.Context) ([]domain.Invoice, error) {
	return s.store.List(ctx)
}

// Get returns one invoice.
func (s *InvoiceService) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.store.Get(ctx, id)
}

// MarkPrinted records that an invoice was printed and returns the updated
// record. Printing again only refreshes the timestamp.
func (s *InvoiceService) MarkPrinted(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.store.MarkPrinted(ctx, id)
}
