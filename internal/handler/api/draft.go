package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/dukan-app/dukan/internal/basket"
	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/service"
)

// DraftHandler exposes draft-session editing over JSON.
type DraftHandler struct {
	drafts   *service.DraftManager
	sales    *service.SaleService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewDraftHandler(drafts *service.DraftManager, sales *service.SaleService, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{
		drafts:   drafts,
		sales:    sales,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type createDraftRequest struct {
	SaleID int64 `json:"sale_id" validate:"gte=0"`
}

// Create handles POST /api/drafts. An optional sale_id loads an existing sale
// for editing.
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, domain.Invalid("draft.create", "malformed JSON body"))
		return
	}

	var (
		state service.DraftState
		err   error
	)
	if req.SaleID > 0 {
		var sale *domain.Sale
		sale, err = h.sales.GetSale(r.Context(), req.SaleID)
		if err == nil {
			state, err = h.drafts.CreateFromSale(r.Context(), sale)
		}
	} else {
		state, err = h.drafts.Create(r.Context())
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, state)
}

// Get handles GET /api/drafts/{id}.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.drafts.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`

	// Quantity is not validated here: zero and negative values are defined
	// basket no-ops, not request errors.
	Quantity int  `json:"quantity"`
	Notify   bool `json:"notify"`
}

type itemResponse struct {
	Outcome basket.Outcome     `json:"outcome"`
	State   service.DraftState `json:"state"`
}

// AddItem handles POST /api/drafts/{id}/items.
func (h *DraftHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	outcome, state, err := h.drafts.AddProduct(r.PathValue("id"), req.ProductID, req.Quantity, req.Notify)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Outcome: outcome, State: state})
}

type quickEntryRequest struct {
	Input string `json:"input" validate:"required"`
}

type quickEntryResponse struct {
	Result service.QuickEntryResult `json:"result"`
	State  service.DraftState       `json:"state"`
}

// QuickEntry handles POST /api/drafts/{id}/quick-entry.
func (h *DraftHandler) QuickEntry(w http.ResponseWriter, r *http.Request) {
	var req quickEntryRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, state, err := h.drafts.QuickEntry(r.PathValue("id"), req.Input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quickEntryResponse{Result: result, State: state})
}

type updateItemRequest struct {
	Quantity  *int     `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
}

// UpdateItem handles PATCH /api/drafts/{id}/items/{index}. A quantity of zero
// or less removes the line.
func (h *DraftHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	index, err := itemIndex(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateItemRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Quantity == nil && req.UnitPrice == nil {
		writeError(w, h.logger, domain.Invalid("draft.item", "quantity or unit_price is required"))
		return
	}

	id := r.PathValue("id")
	var (
		outcome basket.Outcome
		state   service.DraftState
	)
	if req.Quantity != nil {
		outcome, state, err = h.drafts.UpdateQuantity(id, index, *req.Quantity)
	}
	if err == nil && req.UnitPrice != nil {
		outcome, state, err = h.drafts.UpdatePrice(id, index, *req.UnitPrice)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Outcome: outcome, State: state})
}

// DeleteItem handles DELETE /api/drafts/{id}/items/{index}.
func (h *DraftHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	index, err := itemIndex(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	outcome, state, err := h.drafts.RemoveItem(r.PathValue("id"), index)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Outcome: outcome, State: state})
}

// Clear handles POST /api/drafts/{id}/clear. Only the line items are removed.
func (h *DraftHandler) Clear(w http.ResponseWriter, r *http.Request) {
	state, err := h.drafts.ClearItems(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Reset handles POST /api/drafts/{id}/reset. Items, customer name, and
// discount are cleared; tax and payment method survive.
func (h *DraftHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := h.drafts.Reset(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Update handles PATCH /api/drafts/{id} for the non-item draft fields.
func (h *DraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings service.DraftSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, h.logger, domain.Invalid("draft.update", "malformed JSON body"))
		return
	}

	state, err := h.drafts.Update(r.PathValue("id"), settings)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type submitResponse struct {
	Sale    *domain.Sale    `json:"sale"`
	Invoice *domain.Invoice `json:"invoice,omitempty"`
}

// Submit handles POST /api/drafts/{id}/submit. The session is consumed on
// success; on failure it is restored so the client can correct and retry.
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	draft, snap, saleID, err := h.drafts.Take(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sale, invoice, err := h.sales.SubmitDraft(r.Context(), draft, saleID)
	if err != nil {
		h.drafts.Restore(id, draft, snap, saleID)
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Sale: sale, Invoice: invoice})
}

func itemIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, domain.Invalid("draft.item", "item index must be an integer")
	}
	return index, nil
}
