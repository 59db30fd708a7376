package order

import (
	"strings"
	"time"

	"github.com/spintom/inserf/internal/apperr"
	"github.com/spintom/inserf/internal/client"
	"github.com/spintom/inserf/internal/tax"
)

// StatusPending is the status of every order created by checkout.
const StatusPending = "pendiente"

// PurchaseOrder is the record of a completed checkout. Its figures are never
// recomputed after creation.
type PurchaseOrder struct {
	ID            int       `json:"orderId"`
	ClientID      int       `json:"clientId"`
	CreatedAt     time.Time `json:"createdAt"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes"`
	tax.Totals
	Items []Item `json:"items,omitempty"`
}

// Item is an order line with the prices and descriptor frozen at checkout.
type Item struct {
	ID        int    `json:"orderItemId"`
	OrderID   int    `json:"orderId"`
	VariantID int    `json:"variantId"`
	Details   string `json:"variantDetails"`
	tax.Line
}

// CheckoutInput is what the client submits with the checkout form.
type CheckoutInput struct {
	Contact       client.Contact
	PaymentMethod string
	Notes         string
}

// StockPolicy decides what checkout does to variant stock.
type StockPolicy string

const (
	// StockCheck validates quantities against stock but leaves stock as is.
	StockCheck StockPolicy = "check"
	// StockDecrement also takes the ordered units out of stock.
	StockDecrement StockPolicy = "decrement"
)

func ParseStockPolicy(s string) (StockPolicy, error) {
	switch StockPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StockCheck:
		return StockCheck, nil
	case StockDecrement:
		return StockDecrement, nil
	}
	return "", apperr.Newf(apperr.InvalidInput, "unknown stock policy %q", s)
}
