package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/service"
)

// InvoiceHandler serves the invoices generated alongside sales.
type InvoiceHandler struct {
	invoices *service.InvoiceService
	logger   *slog.Logger
}

func NewInvoiceHandler(invoices *service.InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, logger: logger}
}

// List handles GET /api/invoices.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoices.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// Get handles GET /api/invoices/{id}.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("invoice.get", "invoice id must be an integer"))
		return
	}

	invoice, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

// MarkPrinted handles POST /api/invoices/{id}/print.
func (h *InvoiceHandler) MarkPrinted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("invoice.print", "invoice id must be an integer"))
		return
	}

	invoice, err := h.invoices.MarkPrinted(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}
