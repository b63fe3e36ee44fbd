package domain

import "context"

// =============================================================================
// PRODUCT SNAPSHOT TYPES
// =============================================================================

// Product is one sellable product as seen by a basket session.
// Instances are read-only snapshots; the basket core never mutates them.
type Product struct {
	ID           int64
	Name         string
	BrandName    string
	Tags         []string
	SellingPrice float64
	CostPrice    float64

	// AvailableStock is the authoritative ceiling for the quantity of any
	// single line referencing this product within one basket.
	AvailableStock int

	// LowStockThreshold is the level at or below which the product counts as
	// running low.
	LowStockThreshold int

	// IsLowStock is derived upstream and informational only.
	IsLowStock bool

	// IsActive is false for archived products; they keep their sale history
	// but leave the sellable catalog.
	IsActive bool
}

// OutOfStock reports whether the product cannot be added to a basket at all.
func (p Product) OutOfStock() bool {
	return p.AvailableStock == 0
}

// Snapshot is a point-in-time copy of the sellable catalog, fetched once per
// editing session. Quantity validation is only as fresh as this snapshot;
// concurrent stock depletion is re-checked at submission, not here.
type Snapshot struct {
	products []Product
	byID     map[int64]Product
}

// NewSnapshot builds a snapshot with an id index over the given products.
func NewSnapshot(products []Product) Snapshot {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return Snapshot{products: products, byID: byID}
}

// Lookup returns the product for id, if present.
func (s Snapshot) Lookup(id int64) (Product, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Products returns the snapshot contents in catalog order.
func (s Snapshot) Products() []Product {
	return s.products
}

// Empty reports whether the snapshot has not loaded any products.
func (s Snapshot) Empty() bool {
	return len(s.products) == 0
}

// ProductService supplies the sellable catalog to basket sessions.
type ProductService interface {
	// ListAvailable returns all active sellable products.
	ListAvailable(ctx context.Context) ([]Product, error)

	// Snapshot fetches the catalog once and returns it as an indexed snapshot.
	Snapshot(ctx context.Context) (Snapshot, error)
}
