// Package tax splits VAT-inclusive prices into net and VAT parts.
//
// Prices are quoted with VAT included. The net unit price is rounded half-up
// to cents once, and the VAT part is whatever remains, so a line's net and
// VAT subtotals always add back to its gross subtotal exactly.
package tax

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for every persisted amount.
const Places = 2

// DefaultRate is the Chilean VAT rate (19%).
var DefaultRate = decimal.RequireFromString("0.19")

var ErrNegativeRate = errors.New("vat rate must not be negative")

// Unit is the decomposition of one VAT-inclusive unit price.
type Unit struct {
	Price decimal.Decimal `json:"unitPrice"`
	Net   decimal.Decimal `json:"netUnitPrice"`
	VAT   decimal.Decimal `json:"vatAmount"`
}

// Line is a unit decomposition multiplied out by a quantity.
type Line struct {
	Unit
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	NetSubtotal decimal.Decimal `json:"netSubtotal"`
	VATSubtotal decimal.Decimal `json:"vatSubtotal"`
}

// Totals are the sums of a set of lines.
type Totals struct {
	Total    decimal.Decimal `json:"total"`
	NetTotal decimal.Decimal `json:"netTotal"`
	VATTotal decimal.Decimal `json:"vatTotal"`
}

// ValidateRate rejects negative rates.
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

// Split decomposes a VAT-inclusive price using rate (0.19 for 19%).
func Split(price, rate decimal.Decimal) Unit {
	gross := price.Round(Places)
	net := gross.Div(decimal.NewFromInt(1).Add(rate)).Round(Places)
	return Unit{
		Price: gross,
		Net:   net,
		VAT:   gross.Sub(net),
	}
}

// NewLine decomposes price and multiplies every figure by qty.
func NewLine(price decimal.Decimal, qty int, rate decimal.Decimal) Line {
	u := Split(price, rate)
	q := decimal.NewFromInt(int64(qty))
	return Line{
		Unit:        u,
		Quantity:    qty,
		Subtotal:    u.Price.Mul(q),
		NetSubtotal: u.Net.Mul(q),
		VATSubtotal: u.VAT.Mul(q),
	}
}

// Sum adds up the subtotals of lines.
func Sum(lines ...Line) Totals {
	t := Totals{Total: decimal.Zero, NetTotal: decimal.Zero, VATTotal: decimal.Zero}
	for _, l := range lines {
		t.Total = t.Total.Add(l.Subtotal)
		t.NetTotal = t.NetTotal.Add(l.NetSubtotal)
		t.VATTotal = t.VATTotal.Add(l.VATSubtotal)
	}
	return t
}
