// Package routes wires handlers onto the router.
package routes

import (
	"net/http"

	"github.com/dukan-app/dukan/internal/handler/api"
	"github.com/dukan-app/dukan/internal/router"
)

// APIDeps contains the handlers the JSON API routes need.
type APIDeps struct {
	ProductHandler *api.ProductHandler
	DraftHandler   *api.DraftHandler
	SaleHandler    *api.SaleHandler
	InvoiceHandler *api.InvoiceHandler

	// MetricsHandler serves the Prometheus scrape endpoint.
	MetricsHandler http.Handler
}

// RegisterAPIRoutes registers the JSON API surface.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Catalog
	r.Get("/api/products/available", deps.ProductHandler.List)
	r.Post("/api/products", deps.ProductHandler.Create)
	r.Get("/api/products/{id}", deps.ProductHandler.Get)
	r.Put("/api/products/{id}", deps.ProductHandler.Update)
	r.Delete("/api/products/{id}", deps.ProductHandler.Archive)

	// Draft sessions
	r.Post("/api/drafts", deps.DraftHandler.Create)
	r.Get("/api/drafts/{id}", deps.DraftHandler.Get)
	r.Patch("/api/drafts/{id}", deps.DraftHandler.Update)
	r.Post("/api/drafts/{id}/items", deps.DraftHandler.AddItem)
	r.Patch("/api/drafts/{id}/items/{index}", deps.DraftHandler.UpdateItem)
	r.Delete("/api/drafts/{id}/items/{index}", deps.DraftHandler.DeleteItem)
	r.Post("/api/drafts/{id}/quick-entry", deps.DraftHandler.QuickEntry)
	r.Post("/api/drafts/{id}/clear", deps.DraftHandler.Clear)
	r.Post("/api/drafts/{id}/reset", deps.DraftHandler.Reset)
	r.Post("/api/drafts/{id}/submit", deps.DraftHandler.Submit)

	// Sales
	r.Get("/api/sales", deps.SaleHandler.List)
	r.Get("/api/sales/{id}", deps.SaleHandler.Get)
	r.Put("/api/sales/{id}", deps.SaleHandler.Update)
	r.Post("/api/sales/{id}/cancel", deps.SaleHandler.Cancel)
	r.Post("/api/sales/quick", deps.SaleHandler.QuickSale)

	// Invoices
	r.Get("/api/invoices", deps.InvoiceHandler.List)
	r.Get("/api/invoices/{id}", deps.InvoiceHandler.Get)
	r.Post("/api/invoices/{id}/print", deps.InvoiceHandler.MarkPrinted)

	// Reports
	r.Get("/api/reports/daily", deps.SaleHandler.DailyReport)

	// Operations
	if deps.MetricsHandler != nil {
		r.Handle(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
