package catalog

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. It maps to the `products` table.
type Product struct {
	ID          int       `json:"productId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Active      bool      `json:"isActive"`
	Variants    []Variant `json:"variants"`
}

// Variant is a purchasable configuration of a product. Simple products have a
// single variant with HasVariants set to false.
type Variant struct {
	ID          int             `json:"variantId"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Color       string          `json:"color,omitempty"`
	Size        string          `json:"size,omitempty"`
	Weight      float64         `json:"weight,omitempty"`
	Luminous    bool            `json:"isLuminous"`
	HasVariants bool            `json:"hasVariants"`
	Stock       int             `json:"stock"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	BulkPrice   decimal.Decimal `json:"bulkPrice"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

const (
	NoVariantLabel = "Sin variantes"
	StandardLabel  = "Estándar"
	LuminousLabel  = "Luminoso"

	descriptorSeparator = " / "
)

// Describe renders the human-readable descriptor that carts and orders freeze.
// Attributes appear in a fixed order: color, size, weight, luminous.
func Describe(v Variant) string {
	if !v.HasVariants {
		return NoVariantLabel
	}

	parts := make([]string, 0, 4)
	if c := strings.TrimSpace(v.Color); c != "" {
		parts = append(parts, c)
	}
	if s := strings.TrimSpace(v.Size); s != "" {
		parts = append(parts, s)
	}
	if v.Weight > 0 {
		parts = append(parts, strconv.FormatFloat(v.Weight, 'f', -1, 64)+"g")
	}
	if v.Luminous {
		parts = append(parts, LuminousLabel)
	}
	if len(parts) == 0 {
		return StandardLabel
	}
	return strings.Join(parts, descriptorSeparator)
}
