package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukan-app/dukan/internal/domain"
)

// InvoiceStore reads and updates the invoices written at sale submission.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

// NewInvoiceStore creates a PostgreSQL-backed invoice store.
func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	return &InvoiceStore{pool: pool}
}

const invoiceColumns = `id, invoice_number, sale_id, invoice_date, is_printed, printed_at, created_at`

// List returns all invoices, newest first.
func (s *InvoiceStore) List(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY invoice_date DESC, id DESC`)
	if err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to list invoices")
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.SaleID, &inv.InvoiceDate,
			&inv.IsPrinted, &inv.PrintedAt, &inv.CreatedAt); err != nil {
			return nil, domain.Internal(err, "invoice.list", "failed to scan invoice")
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to read invoices")
	}

	return invoices, nil
}

// Get returns one invoice by id.
func (s *InvoiceStore) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := s.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.InvoiceNumber, &inv.SaleID, &inv.InvoiceDate,
		&inv.IsPrinted, &inv.PrintedAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("invoice.get", "invoice", fmt.Sprint(id))
		}
		return nil, domain.Internal(err, "invoice.get", "failed to get invoice")
	}
	return &inv, nil
}

// MarkPrinted records that the invoice was printed. Printing again only
// refreshes the timestamp.
func (s *InvoiceStore) MarkPrinted(ctx context.Context, id int64) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := s.pool.QueryRow(ctx,
		`UPDATE invoices SET is_printed = TRUE, printed_at = now() WHERE id = $1
		 RETURNING `+invoiceColumns, id,
	).Scan(&inv.ID, &inv.InvoiceNumber, &inv.SaleID, &inv.InvoiceDate,
		&inv.IsPrinted, &inv.PrintedAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("invoice.print", "invoice", fmt.Sprint(id))
		}
		return nil, domain.Internal(err, "invoice.print", "failed to mark invoice printed")
	}
	return &inv, nil
}
