package pos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one line of a ticket.
type Item struct {
	ID           uuid.UUID       `json:"id"`
	Product      Product         `json:"product"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	Remark       string          `json:"remark,omitempty"`
	// ParentOID is set when the line was consumed as a component of a bundle.
	// Such lines stay visible on the ticket but carry no price of their own.
	ParentOID string `json:"parentOid,omitempty"`
}

// IsChild reports whether the item was consumed by a bundle parent. Child
// items contribute zero to every price and tax figure.
func (it Item) IsChild() bool {
	return it.ParentOID != ""
}

// TaxEntry reports the base and amount computed for one tax.
type TaxEntry struct {
	Tax          Tax             `json:"tax"`
	Base         decimal.Decimal `json:"base"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
}

// Totals aggregates ticket-level figures.
type Totals struct {
	NetTotal      decimal.Decimal            `json:"netTotal"`
	CrossTotal    decimal.Decimal            `json:"crossTotal"`
	PayableAmount decimal.Decimal            `json:"payableAmount"`
	Taxes         map[string]decimal.Decimal `json:"taxes"`
}

// ZeroTotals returns totals with all figures at zero and an empty tax map.
func ZeroTotals() Totals {
	return Totals{
		NetTotal:      decimal.Zero,
		CrossTotal:    decimal.Zero,
		PayableAmount: decimal.Zero,
		Taxes:         map[string]decimal.Decimal{},
	}
}
