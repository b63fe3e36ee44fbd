// Package quickentry turns free-text search input into basket additions. It
// parses an optional trailing quantity, matches the term against the product
// snapshot, and commits a selection under a stricter policy than the basket's
// own add path: over-stock requests are rejected here, never capped.
package quickentry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukan-app/dukan/internal/basket"
	"github.com/dukan-app/dukan/internal/domain"
)

// trailing whitespace + digit run, e.g. "blue chair 5"
var trailingQuantity = regexp.MustCompile(`^(.*\S)\s+(\d+)$`)

// ParseResult is the outcome of parsing raw quick-entry input.
type ParseResult struct {
	SearchTerm string `json:"search_term"`
	Quantity   int    `json:"quantity"`
}

// Parse extracts a trailing quantity from raw input. "blue chair 5" yields
// {"blue chair", 5}; input without a trailing digit run yields the trimmed
// input and quantity 1. The extracted quantity is not validated against
// stock; that is deferred to the validator when a match is committed.
func Parse(raw string) ParseResult {
	trimmed := strings.TrimSpace(raw)
	if m := trailingQuantity.FindStringSubmatch(trimmed); m != nil {
		qty, err := strconv.Atoi(m[2])
		if err == nil {
			return ParseResult{SearchTerm: m[1], Quantity: qty}
		}
	}
	return ParseResult{SearchTerm: trimmed, Quantity: 1}
}

// Matcher finds products whose name, brand name, or any tag contains the
// search term as a substring.
//
// Matching is case-sensitive by default, which is exact for caseless scripts
// such as Arabic. CaseFold enables case-insensitive matching for Latin-script
// catalogs.
type Matcher struct {
	CaseFold bool
}

// Match returns all snapshot products matching term, in catalog order.
// An empty term matches nothing.
func (m Matcher) Match(snap domain.Snapshot, term string) []domain.Product {
	if term == "" {
		return nil
	}

	contains := strings.Contains
	if m.CaseFold {
		term = strings.ToLower(term)
		contains = func(s, substr string) bool {
			return strings.Contains(strings.ToLower(s), substr)
		}
	}

	var matched []domain.Product
	for _, p := range snap.Products() {
		if contains(p.Name, term) || contains(p.BrandName, term) {
			matched = append(matched, p)
			continue
		}
		for _, tag := range p.Tags {
			if contains(tag, term) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

// Commit adds a matched product to the basket with the parsed quantity.
//
// Unlike Basket.AddProduct, this path rejects instead of capping: a product
// with zero stock, or a quantity above the available stock, blocks the
// mutation entirely with a message naming both numbers. A request within
// stock delegates to the basket's merge path.
func Commit(b *basket.Basket, product domain.Product, quantity int) basket.Outcome {
	if product.OutOfStock() {
		return basket.Outcome{
			Kind:      basket.OutcomeRejected,
			ProductID: product.ID,
			Requested: quantity,
			Available: 0,
			Reason:    fmt.Sprintf("product %q is out of stock", product.Name),
		}
	}
	if quantity > product.AvailableStock {
		return basket.Outcome{
			Kind:      basket.OutcomeRejected,
			ProductID: product.ID,
			Requested: quantity,
			Available: product.AvailableStock,
			Reason: fmt.Sprintf("requested quantity (%d) exceeds available stock (%d)",
				quantity, product.AvailableStock),
		}
	}
	return b.AddProduct(product.ID, quantity, false)
}
