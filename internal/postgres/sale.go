package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukan-app/dukan/internal/domain"
)

// SaleStore persists sales, their line items, and invoices.
type SaleStore struct {
	pool *pgxpool.Pool
}

// NewSaleStore creates a PostgreSQL-backed sale store.
func NewSaleStore(pool *pgxpool.Pool) *SaleStore {
	return &SaleStore{pool: pool}
}

const insertSaleSQL = `
INSERT INTO sales (sale_number, sale_date, customer_name, customer_phone, customer_address,
                   payment_method, status, discount_amount, tax_percentage, notes,
                   subtotal, total_cost, tax_amount, final_total, net_profit)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id, created_at, updated_at`

const insertSaleItemSQL = `
INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, unit_cost, position)
VALUES ($1, $2, $3, $4, $5, $6)`

const decrementStockSQL = `
UPDATE products
SET stock_quantity = stock_quantity - $2, updated_at = now()
WHERE id = $1 AND stock_quantity >= $2`

const restoreStockSQL = `
UPDATE products
SET stock_quantity = stock_quantity + $2, updated_at = now()
WHERE id = $1`

const insertInvoiceSQL = `
INSERT INTO invoices (invoice_number, sale_id, invoice_date)
VALUES ($1, $2, $3)
RETURNING id, created_at`

// CreateSale inserts the sale, its items, and the invoice, and decrements
// product stock, all in one transaction. Stock decrements are guarded: a
// product whose stock dropped below a line's quantity since the draft's
// snapshot aborts the whole transaction with a conflict.
func (s *SaleStore) CreateSale(ctx context.Context, sale *domain.Sale, invoice *domain.Invoice) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, "sale.create", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, insertSaleSQL,
		sale.SaleNumber, sale.SaleDate, sale.CustomerName, sale.CustomerPhone, sale.CustomerAddress,
		sale.PaymentMethod, sale.Status, sale.DiscountAmount, sale.TaxPercentage, sale.Notes,
		sale.Subtotal, sale.TotalCost, sale.TaxAmount, sale.FinalTotal, sale.NetProfit,
	).Scan(&sale.ID, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return domain.Internal(err, "sale.create", "failed to insert sale")
	}

	if err := insertItems(ctx, tx, sale.ID, sale.Items); err != nil {
		return err
	}
	if err := decrementStock(ctx, tx, sale.Items); err != nil {
		return err
	}

	invoice.SaleID = sale.ID
	err = tx.QueryRow(ctx, insertInvoiceSQL, invoice.InvoiceNumber, invoice.SaleID, invoice.InvoiceDate).
		Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		return domain.Internal(err, "sale.create", "failed to insert invoice")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, "sale.create", "failed to commit sale")
	}
	return nil
}

const updateSaleSQL = `
UPDATE sales
SET customer_name = $2, customer_phone = $3, customer_address = $4, payment_method = $5,
    discount_amount = $6, tax_percentage = $7, notes = $8,
    subtotal = $9, total_cost = $10, tax_amount = $11, final_total = $12, net_profit = $13,
    updated_at = now()
WHERE id = $1
RETURNING updated_at`

// UpdateSale replaces an existing sale's details and items. The previous
// items' quantities are returned to stock before the new ones are deducted,
// within the same transaction.
func (s *SaleStore) UpdateSale(ctx context.Context, sale *domain.Sale) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, "sale.update", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	previous, err := fetchItems(ctx, tx, sale.ID)
	if err != nil {
		return err
	}
	for _, item := range previous {
		if _, err := tx.Exec(ctx, restoreStockSQL, item.ProductID, item.Quantity); err != nil {
			return domain.Internal(err, "sale.update", "failed to restore stock")
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, sale.ID); err != nil {
		return domain.Internal(err, "sale.update", "failed to delete previous items")
	}

	err = tx.QueryRow(ctx, updateSaleSQL,
		sale.ID, sale.CustomerName, sale.CustomerPhone, sale.CustomerAddress, sale.PaymentMethod,
		sale.DiscountAmount, sale.TaxPercentage, sale.Notes,
		sale.Subtotal, sale.TotalCost, sale.TaxAmount, sale.FinalTotal, sale.NetProfit,
	).Scan(&sale.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("sale.update", "sale", fmt.Sprint(sale.ID))
		}
		return domain.Internal(err, "sale.update", "failed to update sale")
	}

	if err := insertItems(ctx, tx, sale.ID, sale.Items); err != nil {
		return err
	}
	if err := decrementStock(ctx, tx, sale.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, "sale.update", "failed to commit sale update")
	}
	return nil
}

// CancelSale marks a sale cancelled and returns its items' quantities to
// stock, in one transaction. Cancelling twice is a conflict.
func (s *SaleStore) CancelSale(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, "sale.cancel", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var status domain.SaleStatus
	err = tx.QueryRow(ctx, `SELECT status FROM sales WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("sale.cancel", "sale", fmt.Sprint(id))
		}
		return domain.Internal(err, "sale.cancel", "failed to lock sale")
	}
	if status == domain.SaleStatusCancelled {
		return domain.Conflict("sale.cancel", fmt.Sprintf("sale %d is already cancelled", id))
	}

	items, err := fetchItems(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := tx.Exec(ctx, restoreStockSQL, item.ProductID, item.Quantity); err != nil {
			return domain.Internal(err, "sale.cancel", "failed to restore stock")
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE sales SET status = $2, updated_at = now() WHERE id = $1`,
		id, domain.SaleStatusCancelled)
	if err != nil {
		return domain.Internal(err, "sale.cancel", "failed to update sale status")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, "sale.cancel", "failed to commit cancellation")
	}
	return nil
}

const getSaleSQL = `
SELECT id, sale_number, sale_date, customer_name, customer_phone, customer_address,
       payment_method, status, discount_amount, tax_percentage, notes,
       subtotal, total_cost, tax_amount, final_total, net_profit, created_at, updated_at
FROM sales
WHERE id = $1`

// GetSale returns a sale with its items.
func (s *SaleStore) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.pool.QueryRow(ctx, getSaleSQL, id).Scan(
		&sale.ID, &sale.SaleNumber, &sale.SaleDate, &sale.CustomerName, &sale.CustomerPhone,
		&sale.CustomerAddress, &sale.PaymentMethod, &sale.Status, &sale.DiscountAmount,
		&sale.TaxPercentage, &sale.Notes, &sale.Subtotal, &sale.TotalCost, &sale.TaxAmount,
		&sale.FinalTotal, &sale.NetProfit, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("sale.get", "sale", fmt.Sprint(id))
		}
		return nil, domain.Internal(err, "sale.get", "failed to get sale")
	}

	items, err := fetchItems(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return &sale, nil
}

const listSalesSQL = `
SELECT s.id, s.sale_number, s.sale_date, s.customer_name, s.payment_method, s.status,
       (SELECT count(*) FROM sale_items si WHERE si.sale_id = s.id) AS items_count,
       s.final_total, s.net_profit
FROM sales s
ORDER BY s.sale_date DESC, s.id DESC`

// ListSales returns all sales, newest first.
func (s *SaleStore) ListSales(ctx context.Context) ([]domain.SaleListItem, error) {
	rows, err := s.pool.Query(ctx, listSalesSQL)
	if err != nil {
		return nil, domain.Internal(err, "sale.list", "failed to list sales")
	}
	defer rows.Close()

	var sales []domain.SaleListItem
	for rows.Next() {
		var item domain.SaleListItem
		if err := rows.Scan(&item.ID, &item.SaleNumber, &item.SaleDate, &item.CustomerName,
			&item.PaymentMethod, &item.Status, &item.ItemsCount, &item.FinalTotal, &item.NetProfit); err != nil {
			return nil, domain.Internal(err, "sale.list", "failed to scan sale")
		}
		sales = append(sales, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "sale.list", "failed to read sales")
	}

	return sales, nil
}

const completedTotalsSQL = `
SELECT final_total, total_cost, net_profit
FROM sales
WHERE status = 'completed' AND sale_date >= $1 AND sale_date < $2`

// CompletedTotalsBetween returns the figures of completed sales in [from, to).
func (s *SaleStore) CompletedTotalsBetween(ctx context.Context, from, to time.Time) ([]domain.SaleTotals, error) {
	rows, err := s.pool.Query(ctx, completedTotalsSQL, from, to)
	if err != nil {
		return nil, domain.Internal(err, "report.totals", "failed to query sale totals")
	}
	defer rows.Close()

	var totals []domain.SaleTotals
	for rows.Next() {
		var t domain.SaleTotals
		if err := rows.Scan(&t.FinalTotal, &t.TotalCost, &t.NetProfit); err != nil {
			return nil, domain.Internal(err, "report.totals", "failed to scan sale totals")
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "report.totals", "failed to read sale totals")
	}

	return totals, nil
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchItems(ctx context.Context, q querier, saleID int64) ([]domain.LineItem, error) {
	rows, err := q.Query(ctx,
		`SELECT product_id, quantity, unit_price, unit_cost FROM sale_items WHERE sale_id = $1 ORDER BY position, id`,
		saleID)
	if err != nil {
		return nil, domain.Internal(err, "sale.items", "failed to query sale items")
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &item.UnitCost); err != nil {
			return nil, domain.Internal(err, "sale.items", "failed to scan sale item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "sale.items", "failed to read sale items")
	}

	return items, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, saleID int64, items []domain.LineItem) error {
	for i, item := range items {
		_, err := tx.Exec(ctx, insertSaleItemSQL,
			saleID, item.ProductID, item.Quantity, item.UnitPrice, item.UnitCost, i)
		if err != nil {
			return domain.Internal(err, "sale.items", "failed to insert sale item")
		}
	}
	return nil
}

func decrementStock(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	for _, item := range items {
		tag, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity)
		if err != nil {
			return domain.Internal(err, "sale.stock", "failed to decrement stock")
		}
		if tag.RowsAffected() == 0 {
			return domain.Conflict("sale.stock",
				fmt.Sprintf("insufficient stock for product %d", item.ProductID))
		}
	}
	return nil
}
