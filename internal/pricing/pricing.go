// Package pricing computes the monetary breakdown of a draft sale. Compute is
// a pure function: it recomputes from scratch on every call and never caches,
// which is what keeps the figures consistent after any basket edit.
package pricing

import "github.com/dukan-app/dukan/internal/domain"

// Compute derives the full breakdown from the given items, flat discount,
// tax percentage, and product snapshot.
//
// Subtotal uses each line's stored unit price; total cost looks the product
// up in the current snapshot, so a product missing from the snapshot
// contributes zero cost while still contributing to the subtotal. The
// discount is not validated against the subtotal: a larger discount yields a
// negative taxable amount, and tax is always computed on the discounted
// amount. Intermediate values are not rounded.
func Compute(items []domain.LineItem, discountAmount, taxPercentage float64, snap domain.Snapshot) domain.Breakdown {
	// Before the snapshot loads there is nothing to price; pass the discount
	// through so the caller does not see it flash to zero.
	if snap.Empty() {
		return domain.Breakdown{DiscountAmount: discountAmount}
	}

	var subtotal float64
	for _, item := range items {
		subtotal += float64(item.Quantity) * item.UnitPrice
	}

	var totalCost float64
	for _, item := range items {
		if product, ok := snap.Lookup(item.ProductID); ok {
			totalCost += float64(item.Quantity) * product.CostPrice
		}
	}

	taxableAmount := subtotal - discountAmount
	taxAmount := taxableAmount * taxPercentage / 100

	finalTotal := subtotal - discountAmount + taxAmount
	netProfit := finalTotal - totalCost

	var profitMargin, profitPercentage float64
	if totalCost > 0 {
		profitPercentage = netProfit / totalCost * 100
		if finalTotal != 0 {
			profitMargin = netProfit / finalTotal * 100
		}
	}

	return domain.Breakdown{
		Subtotal:         subtotal,
		TotalCost:        totalCost,
		DiscountAmount:   discountAmount,
		TaxAmount:        taxAmount,
		FinalTotal:       finalTotal,
		NetProfit:        netProfit,
		ProfitMargin:     profitMargin,
		ProfitPercentage: profitPercentage,
	}
}

// ComputeDraft is a convenience wrapper over Compute for a whole draft.
func ComputeDraft(draft domain.SaleDraft, snap domain.Snapshot) domain.Breakdown {
	return Compute(draft.Items, draft.DiscountAmount, draft.TaxPercentage, snap)
}
