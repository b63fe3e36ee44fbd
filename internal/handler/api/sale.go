package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/service"
)

// SaleHandler serves persisted sales and the one-shot quick-sale flow.
type SaleHandler struct {
	sales    *service.SaleService
	reports  *service.ReportService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewSaleHandler(sales *service.SaleService, reports *service.ReportService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		sales:    sales,
		reports:  reports,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// List handles GET /api/sales.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.ListSales(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sales == nil {
		sales = []domain.SaleListItem{}
	}
	writeJSON(w, http.StatusOK, sales)
}

// Get handles GET /api/sales/{id}.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("sale.get", "sale id must be an integer"))
		return
	}

	sale, err := h.sales.GetSale(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

type updateSaleRequest struct {
	Items           []quickSaleItem      `json:"items" validate:"required,min=1,dive"`
	DiscountAmount  float64              `json:"discount_amount" validate:"gte=0"`
	TaxPercentage   float64              `json:"tax_percentage" validate:"gte=0,lte=100"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method" validate:"required"`
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerAddress string               `json:"customer_address"`
	Notes           string               `json:"notes"`
}

// Update handles PUT /api/sales/{id}. The sale's items and figures are
// replaced wholesale; its number, date, and status are kept.
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("sale.update", "sale id must be an integer"))
		return
	}

	var req updateSaleRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	draft := domain.SaleDraft{
		DiscountAmount:  req.DiscountAmount,
		TaxPercentage:   req.TaxPercentage,
		PaymentMethod:   req.PaymentMethod,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Notes:           req.Notes,
	}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, domain.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			UnitCost:  item.UnitCost,
		})
	}

	sale, _, err := h.sales.SubmitDraft(r.Context(), draft, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// Cancel handles POST /api/sales/{id}/cancel. The sale's stock returns to
// the catalog and its status flips to cancelled.
func (h *SaleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("sale.cancel", "sale id must be an integer"))
		return
	}

	sale, err := h.sales.CancelSale(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

type quickSaleItem struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
}

type quickSaleRequest struct {
	Items          []quickSaleItem      `json:"items" validate:"required,min=1,dive"`
	DiscountAmount float64              `json:"discount_amount" validate:"gte=0"`
	PaymentMethod  domain.PaymentMethod `json:"payment_method"`
	CustomerName   string               `json:"customer_name"`
}

// QuickSale handles POST /api/sales/quick. Tax is always zero on this path.
func (h *SaleHandler) QuickSale(w http.ResponseWriter, r *http.Request) {
	var req quickSaleRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	draft := domain.SaleDraft{
		DiscountAmount: req.DiscountAmount,
		PaymentMethod:  req.PaymentMethod,
		CustomerName:   req.CustomerName,
	}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, domain.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			UnitCost:  item.UnitCost,
		})
	}

	result, err := h.sales.CreateQuickSale(r.Context(), draft)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// DailyReport handles GET /api/reports/daily?date=2006-01-02. The date
// defaults to today.
func (h *SaleHandler) DailyReport(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, h.logger, domain.Invalid("report.daily", "date must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	summary, err := h.reports.DailySummary(r.Context(), day)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
