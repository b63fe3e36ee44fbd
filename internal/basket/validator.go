package basket

import "github.com/dukan-app/dukan/internal/domain"

// CapResult is the output of a single quantity validation.
type CapResult struct {
	// Quantity is the admissible quantity: the request unchanged when it fits,
	// the available stock when it does not, zero for unknown products.
	Quantity int

	// WasReduced is true when Quantity was capped below the request.
	WasReduced bool

	// Warning is non-nil only when WasReduced and the caller asked to notify.
	Warning *StockWarning
}

// Validator clamps requested quantities against a product snapshot.
// It is a pure lookup-and-clamp with no side effects.
type Validator struct {
	snap domain.Snapshot
}

// NewValidator creates a validator over the given snapshot.
func NewValidator(snap domain.Snapshot) Validator {
	return Validator{snap: snap}
}

// ValidateAndCap clamps requested against the product's available stock.
//
// An unknown product yields {0, false}: the caller must treat zero as
// "do nothing further", never as a valid zero-quantity line. When the request
// exceeds stock the result is capped and, if notify is set, carries a warning
// naming both the requested and the capped quantity.
func (v Validator) ValidateAndCap(productID int64, requested int, notify bool) CapResult {
	product, ok := v.snap.Lookup(productID)
	if !ok {
		return CapResult{Quantity: 0, WasReduced: false}
	}

	max := product.AvailableStock
	quantity := requested
	if quantity > max {
		quantity = max
	}
	wasReduced := quantity < requested

	res := CapResult{Quantity: quantity, WasReduced: wasReduced}
	if wasReduced && notify {
		res.Warning = &StockWarning{
			ProductID: productID,
			Requested: requested,
			Available: max,
			Applied:   quantity,
		}
	}
	return res
}
