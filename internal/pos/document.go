package pos

import "github.com/shopspring/decimal"

// DocStatus is the lifecycle state of a persisted document.
type DocStatus string

// DocStatusOpen marks a freshly created order document.
const DocStatusOpen DocStatus = "OPEN"

// DocItem is one order document line handed to the document collaborator.
type DocItem struct {
	// Index is 1-based, matching the document position in the backend.
	Index          int             `json:"index"`
	Product        Product         `json:"product"`
	Quantity       decimal.Decimal `json:"quantity"`
	NetUnitPrice   decimal.Decimal `json:"netUnitPrice"`
	NetPrice       decimal.Decimal `json:"netPrice"`
	CrossUnitPrice decimal.Decimal `json:"crossUnitPrice"`
	CrossPrice     decimal.Decimal `json:"crossPrice"`
	Remark         string          `json:"remark,omitempty"`
	Taxes          []TaxEntry      `json:"taxes"`
}

// Order is the payload submitted to the document-persistence collaborator.
type Order struct {
	ID            string          `json:"id,omitempty"`
	OID           string          `json:"oid,omitempty"`
	Number        string          `json:"number,omitempty"`
	Status        DocStatus       `json:"status"`
	Currency      string          `json:"currency"`
	ExchangeRate  decimal.Decimal `json:"exchangeRate"`
	Items         []DocItem       `json:"items"`
	NetTotal      decimal.Decimal `json:"netTotal"`
	CrossTotal    decimal.Decimal `json:"crossTotal"`
	PayableAmount decimal.Decimal `json:"payableAmount"`
	Taxes         []TaxEntry      `json:"taxes"`
	ContactOID    string          `json:"contactOid,omitempty"`
}
