package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/service"
)

// ProductHandler serves the sellable catalog and its back-office management.
type ProductHandler struct {
	products *service.ProductService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewProductHandler(products *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type productResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	BrandName    string   `json:"brand_name,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	SellingPrice float64  `json:"selling_price"`
	Stock        int      `json:"stock"`
	IsLowStock   bool     `json:"is_low_stock"`
}

// managedProductResponse is the back-office view of a product. It includes
// the cost price and archive flag that the selling surface hides.
type managedProductResponse struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	BrandName         string   `json:"brand_name,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	SellingPrice      float64  `json:"selling_price"`
	CostPrice         float64  `json:"cost_price"`
	StockQuantity     int      `json:"stock_quantity"`
	LowStockThreshold int      `json:"low_stock_threshold"`
	IsLowStock        bool     `json:"is_low_stock"`
	IsActive          bool     `json:"is_active"`
}

func toManagedProduct(p domain.Product) managedProductResponse {
	return managedProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		BrandName:         p.BrandName,
		Tags:              p.Tags,
		SellingPrice:      p.SellingPrice,
		CostPrice:         p.CostPrice,
		StockQuantity:     p.AvailableStock,
		LowStockThreshold: p.LowStockThreshold,
		IsLowStock:        p.IsLowStock,
		IsActive:          p.IsActive,
	}
}

// List handles GET /api/products/available.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAvailable(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:           p.ID,
			Name:         p.Name,
			BrandName:    p.BrandName,
			Tags:         p.Tags,
			SellingPrice: p.SellingPrice,
			Stock:        p.AvailableStock,
			IsLowStock:   p.IsLowStock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/products/{id}. Unlike the available listing it
// returns the full back-office view, archived products included.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("product.get", "product id must be an integer"))
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toManagedProduct(*product))
}

type productRequest struct {
	Name              string   `json:"name" validate:"required"`
	BrandName         string   `json:"brand_name"`
	Tags              []string `json:"tags"`
	SellingPrice      float64  `json:"selling_price" validate:"gte=0"`
	CostPrice         float64  `json:"cost_price" validate:"gte=0"`
	StockQuantity     int      `json:"stock_quantity" validate:"gte=0"`
	LowStockThreshold int      `json:"low_stock_threshold" validate:"gte=0"`
}

func (req productRequest) toProduct() domain.Product {
	return domain.Product{
		Name:              req.Name,
		BrandName:         req.BrandName,
		Tags:              req.Tags,
		SellingPrice:      req.SellingPrice,
		CostPrice:         req.CostPrice,
		AvailableStock:    req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
	}
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	product := req.toProduct()
	if err := h.products.Create(r.Context(), &product); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toManagedProduct(product))
}

// Update handles PUT /api/products/{id}. Catalog fields are replaced
// wholesale.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("product.update", "product id must be an integer"))
		return
	}

	var req productRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	product := req.toProduct()
	product.ID = id
	if err := h.products.Update(r.Context(), &product); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toManagedProduct(product))
}

// Archive handles DELETE /api/products/{id}. The product is deactivated,
// not deleted, so past sales keep their line items.
func (h *ProductHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domain.Invalid("product.archive", "product id must be an integer"))
		return
	}

	if err := h.products.Archive(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
