package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukan-app/dukan/internal/basket"
	"github.com/dukan-app/dukan/internal/domain"
	"github.com/dukan-app/dukan/internal/pricing"
	"github.com/dukan-app/dukan/internal/quickentry"
)

// DraftState is what draft endpoints return: the draft contents plus the
// breakdown recomputed against the session's snapshot.
type DraftState struct {
	ID        string           `json:"id"`
	SaleID    int64            `json:"sale_id,omitempty"`
	Draft     domain.SaleDraft `json:"draft"`
	Breakdown domain.Breakdown `json:"breakdown"`
}

// QuickEntryResult is the outcome of one quick-entry input. When the search
// term matches more than one product nothing is committed and Matches carries
// the candidates for the caller to disambiguate.
type QuickEntryResult struct {
	SearchTerm string           `json:"search_term"`
	Quantity   int              `json:"quantity"`
	Matches    []domain.Product `json:"matches,omitempty"`
	Outcome    *basket.Outcome  `json:"outcome,omitempty"`
}

// draftSession is one live editing session. The snapshot is fetched when the
// session is created and never refreshed; stock is re-verified at submission.
type draftSession struct {
	basket    *basket.Basket
	saleID    int64
	touchedAt time.Time
}

// DraftManager holds in-memory draft sessions keyed by opaque ids.
type DraftManager struct {
	products domain.ProductService
	matcher  quickentry.Matcher
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*draftSession
}

// NewDraftManager creates a manager whose sessions expire after ttl of
// inactivity.
func NewDraftManager(products domain.ProductService, matcher quickentry.Matcher, ttl time.Duration) *DraftManager {
	return &DraftManager{
		products: products,
		matcher:  matcher,
		ttl:      ttl,
		sessions: make(map[string]*draftSession),
	}
}

// Create opens a new draft session with a fresh catalog snapshot.
func (m *DraftManager) Create(ctx context.Context) (DraftState, error) {
	snap, err := m.products.Snapshot(ctx)
	if err != nil {
		return DraftState{}, err
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.evictExpired()
	m.sessions[id] = &draftSession{basket: basket.New(snap), touchedAt: time.Now()}
	state := m.stateLocked(id)
	m.mu.Unlock()

	return state, nil
}

// CreateFromSale opens a session pre-loaded with an existing sale's contents,
// for editing. Submitting the session updates that sale instead of creating
// a new one.
func (m *DraftManager) CreateFromSale(ctx context.Context, sale *domain.Sale) (DraftState, error) {
	snap, err := m.products.Snapshot(ctx)
	if err != nil {
		return DraftState{}, err
	}

	draft := domain.SaleDraft{
		Items:           append([]domain.LineItem(nil), sale.Items...),
		DiscountAmount:  sale.DiscountAmount,
		TaxPercentage:   sale.TaxPercentage,
		PaymentMethod:   sale.PaymentMethod,
		CustomerName:    sale.CustomerName,
		CustomerPhone:   sale.CustomerPhone,
		CustomerAddress: sale.CustomerAddress,
		Notes:           sale.Notes,
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.evictExpired()
	m.sessions[id] = &draftSession{basket: basket.Load(snap, draft), saleID: sale.ID, touchedAt: time.Now()}
	state := m.stateLocked(id)
	m.mu.Unlock()

	return state, nil
}

// Get returns the current state of a session.
func (m *DraftManager) Get(id string) (DraftState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.sessionLocked(id); err != nil {
		return DraftState{}, err
	}
	return m.stateLocked(id), nil
}

// AddProduct adds quantity of a product to the session's basket.
func (m *DraftManager) AddProduct(id string, productID int64, quantity int, notify bool) (basket.Outcome, DraftState, error) {
	return m.apply(id, func(b *basket.Basket) basket.Outcome {
		return b.AddProduct(productID, quantity, notify)
	})
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
func (m *DraftManager) UpdateQuantity(id string, index, quantity int) (basket.Outcome, DraftState, error) {
	return m.apply(id, func(b *basket.Basket) basket.Outcome {
		return b.UpdateQuantity(index, quantity)
	})
}

// UpdatePrice overrides a line's unit price.
func (m *DraftManager) UpdatePrice(id string, index int, price float64) (basket.Outcome, DraftState, error) {
	return m.apply(id, func(b *basket.Basket) basket.Outcome {
		return b.UpdatePrice(index, price)
	})
}

// RemoveItem deletes a line by index.
func (m *DraftManager) RemoveItem(id string, index int) (basket.Outcome, DraftState, error) {
	return m.apply(id, func(b *basket.Basket) basket.Outcome {
		return b.RemoveItem(index)
	})
}

// QuickEntry parses raw quick-entry input and, when the term resolves to
// exactly one product, commits that product to the basket. Ambiguous input
// returns the candidates untouched.
func (m *DraftManager) QuickEntry(id string, raw string) (QuickEntryResult, DraftState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.sessionLocked(id)
	if err != nil {
		return QuickEntryResult{}, DraftState{}, err
	}

	parsed := quickentry.Parse(raw)
	result := QuickEntryResult{SearchTerm: parsed.SearchTerm, Quantity: parsed.Quantity}
	if strings.TrimSpace(parsed.SearchTerm) == "" {
		return result, m.stateLocked(id), nil
	}

	matches := m.matcher.Match(sess.basket.Snapshot(), parsed.SearchTerm)
	if len(matches) != 1 {
		result.Matches = matches
		return result, m.stateLocked(id), nil
	}

	outcome := quickentry.Commit(sess.basket, matches[0], parsed.Quantity)
	result.Outcome = &outcome
	sess.touchedAt = time.Now()
	return result, m.stateLocked(id), nil
}

// ClearItems empties the basket's lines, keeping every other draft field.
func (m *DraftManager) ClearItems(id string) (DraftState, error) {
	return m.mutate(id, func(b *basket.Basket) { b.ClearItems() })
}

// Reset clears items, customer name, and discount for the next walk-in sale.
func (m *DraftManager) Reset(id string) (DraftState, error) {
	return m.mutate(id, func(b *basket.Basket) { b.Reset() })
}

// DraftSettings carries the patchable non-item fields of a draft. Nil fields
// are left unchanged.
type DraftSettings struct {
	DiscountAmount  *float64              `json:"discount_amount"`
	TaxPercentage   *float64              `json:"tax_percentage"`
	PaymentMethod   *domain.PaymentMethod `json:"payment_method"`
	CustomerName    *string               `json:"customer_name"`
	CustomerPhone   *string               `json:"customer_phone"`
	CustomerAddress *string               `json:"customer_address"`
	Notes           *string               `json:"notes"`
}

// Update applies the provided settings to the draft.
func (m *DraftManager) Update(id string, settings DraftSettings) (DraftState, error) {
	if settings.PaymentMethod != nil && !domain.ValidPaymentMethod(*settings.PaymentMethod) {
		return DraftState{}, domain.Invalid("draft.update", "invalid payment method")
	}
	if settings.TaxPercentage != nil && (*settings.TaxPercentage < 0 || *settings.TaxPercentage > 100) {
		return DraftState{}, domain.Invalid("draft.update", "tax percentage must be between 0 and 100")
	}

	return m.mutate(id, func(b *basket.Basket) {
		draft := b.Draft()
		if settings.DiscountAmount != nil {
			b.SetDiscount(*settings.DiscountAmount)
		}
		if settings.TaxPercentage != nil {
			b.SetTax(*settings.TaxPercentage)
		}
		if settings.PaymentMethod != nil {
			b.SetPaymentMethod(*settings.PaymentMethod)
		}
		name, phone, address := draft.CustomerName, draft.CustomerPhone, draft.CustomerAddress
		if settings.CustomerName != nil {
			name = *settings.CustomerName
		}
		if settings.CustomerPhone != nil {
			phone = *settings.CustomerPhone
		}
		if settings.CustomerAddress != nil {
			address = *settings.CustomerAddress
		}
		b.SetCustomer(name, phone, address)
		if settings.Notes != nil {
			b.SetNotes(*settings.Notes)
		}
	})
}

// Take removes the session and returns its draft, snapshot, and the sale id
// it was loaded from (zero for new sales). Used by submission.
func (m *DraftManager) Take(id string) (domain.SaleDraft, domain.Snapshot, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.sessionLocked(id)
	if err != nil {
		return domain.SaleDraft{}, domain.Snapshot{}, 0, err
	}
	delete(m.sessions, id)
	return sess.basket.Draft(), sess.basket.Snapshot(), sess.saleID, nil
}

// Restore re-registers a draft under its old id after a failed submission so
// the caller can fix the problem and retry.
func (m *DraftManager) Restore(id string, draft domain.SaleDraft, snap domain.Snapshot, saleID int64) {
	m.mu.Lock()
	m.sessions[id] = &draftSession{basket: basket.Load(snap, draft), saleID: saleID, touchedAt: time.Now()}
	m.mu.Unlock()
}

func (m *DraftManager) apply(id string, op func(*basket.Basket) basket.Outcome) (basket.Outcome, DraftState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.sessionLocked(id)
	if err != nil {
		return basket.Outcome{}, DraftState{}, err
	}
	outcome := op(sess.basket)
	sess.touchedAt = time.Now()
	return outcome, m.stateLocked(id), nil
}

func (m *DraftManager) mutate(id string, op func(*basket.Basket)) (DraftState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.sessionLocked(id)
	if err != nil {
		return DraftState{}, err
	}
	op(sess.basket)
	sess.touchedAt = time.Now()
	return m.stateLocked(id), nil
}

func (m *DraftManager) sessionLocked(id string) (*draftSession, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return nil, domain.NotFound("draft.session", "draft", id)
	}
	if m.ttl > 0 && time.Since(sess.touchedAt) > m.ttl {
		delete(m.sessions, id)
		return nil, domain.NotFound("draft.session", "draft", id)
	}
	return sess, nil
}

func (m *DraftManager) stateLocked(id string) DraftState {
	sess := m.sessions[id]
	draft := sess.basket.Draft()
	return DraftState{
		ID:        id,
		SaleID:    sess.saleID,
		Draft:     draft,
		Breakdown: pricing.ComputeDraft(draft, sess.basket.Snapshot()),
	}
}

func (m *DraftManager) evictExpired() {
	if m.ttl <= 0 {
		return
	}
	for id, sess := range m.sessions {
		if time.Since(sess.touchedAt) > m.ttl {
			delete(m.sessions, id)
		}
	}
}
