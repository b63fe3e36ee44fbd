// Package basket owns the ordered line items of one draft sale and funnels
// every quantity change through stock validation. All operations are
// synchronous, mutate only the targeted line, and report their result as a
// value-encoded Outcome instead of an error.
package basket

import "github.com/dukan-app/dukan/internal/domain"

// Basket manages the single mutable draft of one editing session. The product
// snapshot is fixed at construction; refreshing it is the session's concern.
type Basket struct {
	draft     domain.SaleDraft
	snap      domain.Snapshot
	validator Validator
}

// New creates an empty basket over the given snapshot.
func New(snap domain.Snapshot) *Basket {
	return &Basket{
		draft:     domain.SaleDraft{PaymentMethod: domain.PaymentCash},
		snap:      snap,
		validator: NewValidator(snap),
	}
}

// Load creates a basket pre-populated from an existing draft (edit flow).
// The draft's quantities are taken as-is; they were validated when persisted
// and are re-checked at the next mutation or at submission.
func Load(snap domain.Snapshot, draft domain.SaleDraft) *Basket {
	b := New(snap)
	b.draft = draft
	return b
}

// Draft returns a copy of the current draft state.
func (b *Basket) Draft() domain.SaleDraft {
	d := b.draft
	d.Items = make([]domain.LineItem, len(b.draft.Items))
	copy(d.Items, b.draft.Items)
	return d
}

// Items returns the current line items in insertion order.
func (b *Basket) Items() []domain.LineItem {
	return b.Draft().Items
}

// Snapshot returns the product snapshot this basket validates against.
func (b *Basket) Snapshot() domain.Snapshot {
	return b.snap
}

// Validator exposes the basket's quantity validator.
func (b *Basket) Validator() Validator {
	return b.validator
}

// AddProduct adds quantity units of a product, merging into an existing line
// when one references the same product. Merging validates the combined total
// and replaces the line's quantity with the capped result rather than
// incrementing blindly. New lines copy unit price and cost from the snapshot
// at this instant and are appended only when the capped quantity is at least 1.
//
// An out-of-stock product is rejected outright, before validation. An unknown
// product or non-positive quantity is a silent no-op.
func (b *Basket) AddProduct(productID int64, quantity int, notify bool) Outcome {
	product, ok := b.snap.Lookup(productID)
	if !ok {
		return noOp()
	}
	if product.OutOfStock() {
		return rejected(productID, quantity, 0, "product is out of stock")
	}
	if quantity <= 0 {
		return noOp()
	}

	if idx, exists := b.findLine(productID); exists {
		requestedTotal := b.draft.Items[idx].Quantity + quantity
		res := b.validator.ValidateAndCap(productID, requestedTotal, notify)
		b.draft.Items[idx].Quantity = res.Quantity
		if res.WasReduced {
			return b.capOutcome(productID, requestedTotal, res)
		}
		return applied(productID, res.Quantity)
	}

	res := b.validator.ValidateAndCap(productID, quantity, notify)
	if res.Quantity < 1 {
		return noOp()
	}
	b.draft.Items = append(b.draft.Items, domain.LineItem{
		ProductID: productID,
		Quantity:  res.Quantity,
		UnitPrice: product.SellingPrice,
		UnitCost:  product.CostPrice,
	})
	if res.WasReduced {
		return b.capOutcome(productID, quantity, res)
	}
	return applied(productID, res.Quantity)
}

// UpdateQuantity replaces the quantity of the line at index. A quantity of
// zero or less removes the line entirely; it is not an error. A line whose
// product has left the snapshot is left untouched (silent no-op). A line
// whose product's stock dropped to zero is removed, since every kept line
// must carry a positive quantity.
func (b *Basket) UpdateQuantity(index, quantity int) Outcome {
	if index < 0 || index >= len(b.draft.Items) {
		return noOp()
	}
	if quantity <= 0 {
		return b.RemoveItem(index)
	}

	productID := b.draft.Items[index].ProductID
	res := b.validator.ValidateAndCap(productID, quantity, true)
	if res.Quantity == 0 && !res.WasReduced {
		// Unknown product: treat as zero quantity, change nothing.
		return noOp()
	}
	if res.Quantity == 0 {
		// Stock hit zero since the line was created. A zero-quantity line
		// would never survive submission, so drop it now.
		b.RemoveItem(index)
		return b.capOutcome(productID, quantity, res)
	}
	b.draft.Items[index].Quantity = res.Quantity
	if res.WasReduced {
		return b.capOutcome(productID, quantity, res)
	}
	return applied(productID, res.Quantity)
}

// UpdatePrice overrides the unit price of the line at index (per-line manual
// discounts). The sale's own validation does not re-derive it.
func (b *Basket) UpdatePrice(index int, price float64) Outcome {
	if index < 0 || index >= len(b.draft.Items) {
		return noOp()
	}
	b.draft.Items[index].UnitPrice = price
	return applied(b.draft.Items[index].ProductID, b.draft.Items[index].Quantity)
}

// RemoveItem deletes the line at index. Remaining lines shift down; nothing
// else is renumbered or merged.
func (b *Basket) RemoveItem(index int) Outcome {
	if index < 0 || index >= len(b.draft.Items) {
		return noOp()
	}
	productID := b.draft.Items[index].ProductID
	b.draft.Items = append(b.draft.Items[:index], b.draft.Items[index+1:]...)
	return Outcome{Kind: OutcomeApplied, ProductID: productID}
}

// ClearItems empties the item list, leaving discount, tax, and customer
// fields untouched (full-sale flow).
func (b *Basket) ClearItems() {
	b.draft.Items = nil
}

// Reset empties the items and clears customer name and discount together
// (quick-sale flow). Tax and payment method keep their values.
func (b *Basket) Reset() {
	b.draft.Items = nil
	b.draft.CustomerName = ""
	b.draft.DiscountAmount = 0
}

// SetDiscount sets the flat discount amount for the whole draft.
func (b *Basket) SetDiscount(amount float64) {
	b.draft.DiscountAmount = amount
}

// SetTax sets the tax percentage applied to the post-discount amount.
func (b *Basket) SetTax(percentage float64) {
	b.draft.TaxPercentage = percentage
}

// SetPaymentMethod records how the sale will be paid.
func (b *Basket) SetPaymentMethod(m domain.PaymentMethod) {
	b.draft.PaymentMethod = m
}

// SetCustomer records the optional customer details.
func (b *Basket) SetCustomer(name, phone, address string) {
	b.draft.CustomerName = name
	b.draft.CustomerPhone = phone
	b.draft.CustomerAddress = address
}

// SetNotes records free-form notes on the draft.
func (b *Basket) SetNotes(notes string) {
	b.draft.Notes = notes
}

func (b *Basket) findLine(productID int64) (int, bool) {
	for i, item := range b.draft.Items {
		if item.ProductID == productID {
			return i, true
		}
	}
	return 0, false
}

func (b *Basket) capOutcome(productID int64, requested int, res CapResult) Outcome {
	out := Outcome{
		Kind:      OutcomeCapped,
		ProductID: productID,
		Requested: requested,
		Applied:   res.Quantity,
		Warning:   res.Warning,
	}
	if product, ok := b.snap.Lookup(productID); ok {
		out.Available = product.AvailableStock
	}
	return out
}
