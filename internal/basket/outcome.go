package basket

import "fmt"

// OutcomeKind tags the result of a basket mutation.
type OutcomeKind string

const (
	// OutcomeApplied means the mutation went through at the requested values.
	OutcomeApplied OutcomeKind = "applied"

	// OutcomeCapped means the mutation went through, but the quantity was
	// reduced to the available stock.
	OutcomeCapped OutcomeKind = "capped"

	// OutcomeRejected means the mutation was blocked entirely.
	OutcomeRejected OutcomeKind = "rejected"

	// OutcomeNoOp means nothing happened: unknown product, zero quantity,
	// or an index that does not exist.
	OutcomeNoOp OutcomeKind = "no_op"
)

// Outcome is the value-encoded result of a basket operation. Callers pattern
// match on Kind instead of re-deriving intent from booleans and messages.
type Outcome struct {
	Kind      OutcomeKind `json:"outcome"`
	ProductID int64       `json:"product_id,omitempty"`

	// Requested and Applied carry the exact quantities for capped mutations;
	// Available is filled on caps and rejections so callers can show both
	// numbers without another snapshot lookup.
	Requested int `json:"requested,omitempty"`
	Applied   int `json:"applied,omitempty"`
	Available int `json:"available,omitempty"`

	// Reason is set on rejections.
	Reason string `json:"message,omitempty"`

	// Warning is non-nil only when a cap happened and the caller opted into
	// notification.
	Warning *StockWarning `json:"warning,omitempty"`
}

// StockWarning is the user-visible notice produced by an opted-in cap.
// It must state both the requested and the applied quantity exactly.
type StockWarning struct {
	ProductID int64 `json:"product_id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
	Applied   int   `json:"applied"`
}

// Message renders the warning for display.
func (w StockWarning) Message() string {
	return fmt.Sprintf("requested quantity (%d) exceeds available stock (%d); quantity reduced to %d",
		w.Requested, w.Available, w.Applied)
}

func applied(productID int64, quantity int) Outcome {
	return Outcome{Kind: OutcomeApplied, ProductID: productID, Requested: quantity, Applied: quantity}
}

func noOp() Outcome {
	return Outcome{Kind: OutcomeNoOp}
}

func rejected(productID int64, requested, available int, reason string) Outcome {
	return Outcome{
		Kind:      OutcomeRejected,
		ProductID: productID,
		Requested: requested,
		Available: available,
		Reason:    reason,
	}
}
