// Package postgres implements the service store interfaces over pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukan-app/dukan/internal/domain"
)

// ProductStore reads the sellable catalog from PostgreSQL.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore creates a PostgreSQL-backed product store.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const listAvailableSQL = `
SELECT id, name, brand_name, tags, selling_price, cost_price, stock_quantity,
       low_stock_threshold, stock_quantity <= low_stock_threshold AS is_low_stock, is_active
FROM products
WHERE is_active
ORDER BY id`

// ListAvailable returns all active products with their live stock levels.
func (s *ProductStore) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, listAvailableSQL)
	if err != nil {
		return nil, domain.Internal(err, "product.list_available", "failed to list products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.BrandName, &p.Tags, &p.SellingPrice,
			&p.CostPrice, &p.AvailableStock, &p.LowStockThreshold, &p.IsLowStock, &p.IsActive); err != nil {
			return nil, domain.Internal(err, "product.list_available", "failed to scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "product.list_available", "failed to read products")
	}

	return products, nil
}

const getProductSQL = `
SELECT id, name, brand_name, tags, selling_price, cost_price, stock_quantity,
       low_stock_threshold, stock_quantity <= low_stock_threshold AS is_low_stock, is_active
FROM products
WHERE id = $1`

// Get returns a single product by id, archived ones included.
func (s *ProductStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.pool.QueryRow(ctx, getProductSQL, id).Scan(&p.ID, &p.Name, &p.BrandName,
		&p.Tags, &p.SellingPrice, &p.CostPrice, &p.AvailableStock, &p.LowStockThreshold,
		&p.IsLowStock, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("product.get", "product", fmt.Sprint(id))
		}
		return nil, domain.Internal(err, "product.get", "failed to get product")
	}
	return &p, nil
}

const createProductSQL = `
INSERT INTO products (name, brand_name, tags, selling_price, cost_price,
                      stock_quantity, low_stock_threshold)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// Create inserts a new product into the catalog.
func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	err := s.pool.QueryRow(ctx, createProductSQL,
		p.Name, p.BrandName, p.Tags, p.SellingPrice, p.CostPrice,
		p.AvailableStock, p.LowStockThreshold,
	).Scan(&p.ID)
	if err != nil {
		return domain.Internal(err, "product.create", "failed to insert product")
	}
	p.IsActive = true
	p.IsLowStock = p.AvailableStock <= p.LowStockThreshold
	return nil
}

const updateProductSQL = `
UPDATE products
SET name = $2, brand_name = $3, tags = $4, selling_price = $5, cost_price = $6,
    stock_quantity = $7, low_stock_threshold = $8, updated_at = now()
WHERE id = $1
RETURNING is_active`

// Update replaces a product's catalog fields and stock level. The archive
// flag is untouched; use Archive for that.
func (s *ProductStore) Update(ctx context.Context, p *domain.Product) error {
	err := s.pool.QueryRow(ctx, updateProductSQL,
		p.ID, p.Name, p.BrandName, p.Tags, p.SellingPrice, p.CostPrice,
		p.AvailableStock, p.LowStockThreshold,
	).Scan(&p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("product.update", "product", fmt.Sprint(p.ID))
		}
		return domain.Internal(err, "product.update", "failed to update product")
	}
	p.IsLowStock = p.AvailableStock <= p.LowStockThreshold
	return nil
}

// Archive deactivates a product. It disappears from the sellable catalog but
// stays referenced by historical sales.
func (s *ProductStore) Archive(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "product.archive", "failed to archive product")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product.archive", "product", fmt.Sprint(id))
	}
	return nil
}
