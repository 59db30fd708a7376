package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spintom/inserf/internal/catalog"
	"github.com/spintom/inserf/internal/tax"
)

// Cart is the per-client basket. It is created on the first add and kept
// (empty) after checkout.
type Cart struct {
	ID        int       `json:"cartId"`
	ClientID  int       `json:"clientId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Item is a stored cart line. Details is the descriptor frozen when the
// variant was last added.
type Item struct {
	ID        int    `json:"itemId"`
	CartID    int    `json:"cartId"`
	VariantID int    `json:"variantId"`
	Quantity  int    `json:"quantity"`
	Details   string `json:"variantDetails"`
}

// Line is an item priced against the live variant.
type Line struct {
	ItemID      int    `json:"itemId"`
	VariantID   int    `json:"variantId"`
	ProductName string `json:"productName"`
	Details     string `json:"variantDetails"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"imageUrl,omitempty"`
	tax.Line
}

type View struct {
	Items []Line `json:"items"`
	tax.Totals
	CartCount int `json:"cartCount"`
}

// Result is returned by the cart mutations.
type Result struct {
	CartCount int    `json:"cartCount"`
	Message   string `json:"message"`
}

// Price builds the lines for items from the given variants. Figures always
// come from the variant's current unit price; the stored descriptor is kept
// unless it is blank.
func Price(items []Item, variants map[int]catalog.Variant, rate decimal.Decimal) ([]Line, error) {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		v, ok := variants[it.VariantID]
		if !ok {
			return nil, fmt.Errorf("cart item %d: variant %d missing", it.ID, it.VariantID)
		}
		details := it.Details
		if details == "" {
			details = catalog.Describe(v)
		}
		lines = append(lines, Line{
			ItemID:      it.ID,
			VariantID:   v.ID,
			ProductName: v.ProductName,
			Details:     details,
			Stock:       v.Stock,
			ImageURL:    v.ImageURL,
			Line:        tax.NewLine(v.UnitPrice, it.Quantity, rate),
		})
	}
	return lines, nil
}

// Totals sums the tax figures of lines.
func Totals(lines []Line) tax.Totals {
	tl := make([]tax.Line, len(lines))
	for i, l := range lines {
		tl[i] = l.Line
	}
	return tax.Sum(tl...)
}

// VariantIDs lists the variants referenced by items.
func VariantIDs(items []Item) []int {
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.VariantID
	}
	return ids
}
