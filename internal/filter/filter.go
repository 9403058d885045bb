// Package filter derives the visible product list from the catalog and the
// user's search, category and price ceiling. Everything here is pure.
package filter

import (
	"strings"

	"github.com/indstore/storefront/pkg/types"
)

// CategoryAll disables the category constraint.
const CategoryAll = "All"

// Price ceiling slider bounds in USD.
const (
	MinPriceCeiling     = 500
	MaxPriceCeiling     = 25000
	PriceCeilingStep    = 500
	DefaultPriceCeiling = MaxPriceCeiling
)

// Criteria are ANDed together.
type Criteria struct {
	Search       string
	Category     string
	PriceCeiling float64
}

// DefaultCriteria matches everything up to the default ceiling.
func DefaultCriteria() Criteria {
	return Criteria{Category: CategoryAll, PriceCeiling: DefaultPriceCeiling}
}

// Visible returns the products matching c in source order. The input is not modified.
func Visible(products []types.Product, c Criteria) []types.Product {
	needle := strings.ToLower(c.Search)
	out := make([]types.Product, 0, len(products))
	for _, p := range products {
		if !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if c.Category != "" && c.Category != CategoryAll && p.Category != c.Category {
			continue
		}
		if p.Price > c.PriceCeiling {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns "All" followed by each distinct category in first-seen order.
func Categories(products []types.Product) []string {
	out := []string{CategoryAll}
	seen := map[string]struct{}{}
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// ClampBounds keeps v within the slider range without snapping to a step.
func ClampBounds(v float64) float64 {
	switch {
	case v <= MinPriceCeiling:
		return MinPriceCeiling
	case v >= MaxPriceCeiling:
		return MaxPriceCeiling
	default:
		return v
	}
}

// ClampCeiling snaps v onto the slider: within bounds and on a step boundary.
func ClampCeiling(v float64) float64 {
	if v <= MinPriceCeiling || v >= MaxPriceCeiling {
		return ClampBounds(v)
	}
	steps := int((v-MinPriceCeiling)/PriceCeilingStep + 0.5)
	return float64(MinPriceCeiling + steps*PriceCeilingStep)
}
