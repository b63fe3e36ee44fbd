package service

import (
	"context"
	"time"

	"github.com/dukan-app/dukan/internal/domain"
)

// mockProductService implements domain.ProductService with overridable funcs.
type mockProductService struct {
	ListAvailableFn func(ctx context.Context) ([]domain.Product, error)
	SnapshotFn      func(ctx context.Context) (domain.Snapshot, error)
}

func (m *mockProductService) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	return m.ListAvailableFn(ctx)
}

func (m *mockProductService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return m.SnapshotFn(ctx)
}

// mockSaleStore implements SaleStore with overridable funcs.
type mockSaleStore struct {
	CreateSaleFn             func(ctx context.Context, sale *domain.Sale, invoice *domain.Invoice) error
	UpdateSaleFn             func(ctx context.Context, sale *domain.Sale) error
	GetSaleFn                func(ctx context.Context, id int64) (*domain.Sale, error)
	CancelSaleFn             func(ctx context.Context, id int64) error
	ListSalesFn              func(ctx context.Context) ([]domain.SaleListItem, error)
	CompletedTotalsBetweenFn func(ctx context.Context, from, to time.Time) ([]domain.SaleTotals, error)
}

func (m *mockSaleStore) CreateSale(ctx context.Context, sale *domain.Sale, invoice *domain.Invoice) error {
	return m.CreateSaleFn(ctx, sale, invoice)
}

func (m *mockSaleStore) UpdateSale(ctx context.Context, sale *domain.Sale) error {
	return m.UpdateSaleFn(ctx, sale)
}

func (m *mockSaleStore) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return m.GetSaleFn(ctx, id)
}

func (m *mockSaleStore) CancelSale(ctx context.Context, id int64) error {
	return m.CancelSaleFn(ctx, id)
}

func (m *mockSaleStore) ListSales(ctx context.Context) ([]domain.SaleListItem, error) {
	return m.ListSalesFn(ctx)
}

func (m *mockSaleStore) CompletedTotalsBetween(ctx context.Context, from, to time.Time) ([]domain.SaleTotals, error) {
	return m.CompletedTotalsBetweenFn(ctx, from, to)
}

// mockProductStore implements ProductStore with overridable funcs.
type mockProductStore struct {
	ListAvailableFn func(ctx context.Context) ([]domain.Product, error)
	GetFn           func(ctx context.Context, id int64) (*domain.Product, error)
	CreateFn        func(ctx context.Context, p *domain.Product) error
	UpdateFn        func(ctx context.Context, p *domain.Product) error
	ArchiveFn       func(ctx context.Context, id int64) error
}

func (m *mockProductStore) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	return m.ListAvailableFn(ctx)
}

func (m *mockProductStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return m.GetFn(ctx, id)
}

func (m *mockProductStore) Create(ctx context.Context, p *domain.Product) error {
	return m.CreateFn(ctx, p)
}

func (m *mockProductStore) Update(ctx context.Context, p *domain.Product) error {
	return m.UpdateFn(ctx, p)
}

func (m *mockProductStore) Archive(ctx context.Context, id int64) error {
	return m.ArchiveFn(ctx, id)
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	subjects []string
	payloads []any
}

func (p *recordingPublisher) Publish(subject string, event any) {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, event)
}

func (p *recordingPublisher) Close() {}

func staticProducts(products ...domain.Product) *mockProductService {
	return &mockProductService{
		ListAvailableFn: func(context.Context) ([]domain.Product, error) {
			return products, nil
		},
		SnapshotFn: func(context.Context) (domain.Snapshot, error) {
			return domain.NewSnapshot(products), nil
		},
	}
}
