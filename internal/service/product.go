package service

import (
	"context"
	"strings"

	"github.com/dukan-app/dukan/internal/domain"
)

// ProductStore is the persistence surface the product service consumes.
type ProductStore interface {
	ListAvailable(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Archive(ctx context.Context, id int64) error
}

// ProductService exposes the sellable catalog. It satisfies
// domain.ProductService for basket sessions.
type ProductService struct {
	store ProductStore
}

func NewProductService(store ProductStore) *ProductService {
	return &ProductService{store: store}
}

// ListAvailable returns all active products with current stock figures.
func (s *ProductService) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListAvailable(ctx)
}

// Snapshot fetches the catalog once and indexes it by product id. Draft
// sessions hold the returned snapshot for their whole lifetime.
func (s *ProductService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	products, err := s.store.ListAvailable(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.NewSnapshot(products), nil
}

// Get returns a single product, archived or not.
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.Get(ctx, id)
}

// Create adds a product to the catalog. New products start active.
func (s *ProductService) Create(ctx context.Context, p *domain.Product) error {
	if err := validateProduct("product.create", p); err != nil {
		return err
	}
	return s.store.Create(ctx, p)
}

// Update overwrites a product's catalog fields. Stock adjustments made by
// sales are not routed through here; this is for back-office edits.
func (s *ProductService) Update(ctx context.Context, p *domain.Product) error {
	if err := validateProduct("product.update", p); err != nil {
		return err
	}
	return s.store.Update(ctx, p)
}

// Archive removes a product from the sellable catalog without touching
// the sale history that references it.
func (s *ProductService) Archive(ctx context.Context, id int64) error {
	return s.store.Archive(ctx, id)
}

func validateProduct(op string, p *domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.Invalid(op, "product name is required")
	}
	if p.SellingPrice < 0 || p.CostPrice < 0 {
		return domain.Invalid(op, "prices cannot be negative")
	}
	if p.AvailableStock < 0 {
		return domain.Invalid(op, "stock quantity cannot be negative")
	}
	if p.LowStockThreshold < 0 {
		return domain.Invalid(op, "low stock threshold cannot be negative")
	}
	return nil
}
