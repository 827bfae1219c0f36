package pos

import "github.com/shopspring/decimal"

// ProductType discriminates catalog entries served by the gateway.
type ProductType string

const (
	// ProductTypeStandard is a regular sellable product.
	ProductTypeStandard ProductType = "STANDART"
	// ProductTypePartList is a bundle product whose relations declare the
	// component products it substitutes.
	ProductTypePartList ProductType = "PARTLIST"
	// ProductTypeText is a free-text line without pricing of its own.
	ProductTypeText ProductType = "TEXT"
)

// RelationType discriminates product relations.
type RelationType string

// RelationSalesBOM marks a relation as a bundle component requirement.
const RelationSalesBOM RelationType = "SALESBOM"

// ProductRelation links a product to a related product with a quantity.
type ProductRelation struct {
	Type       RelationType    `json:"type"`
	ProductOID string          `json:"productOid"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// TaxType discriminates the two supported tax models.
type TaxType string

const (
	// TaxAdvalorem is computed as a percentage of a base amount.
	TaxAdvalorem TaxType = "ADVALOREM"
	// TaxPerUnit is a flat amount per unit of quantity.
	TaxPerUnit TaxType = "PERUNIT"
)

// Tax is one tax definition attached to a product.
type Tax struct {
	OID     string          `json:"oid"`
	Key     string          `json:"key"`
	CatKey  string          `json:"catKey"`
	Name    string          `json:"name"`
	Type    TaxType         `json:"type"`
	Percent decimal.Decimal `json:"percent"`
}

// Product is a catalog product as served by the gateway.
type Product struct {
	OID         string            `json:"oid"`
	SKU         string            `json:"sku"`
	Description string            `json:"description"`
	Type        ProductType       `json:"type"`
	NetPrice    decimal.Decimal   `json:"netPrice"`
	CrossPrice  decimal.Decimal   `json:"crossPrice"`
	Currency    string            `json:"currency"`
	Taxes       []Tax             `json:"taxes"`
	Relations   []ProductRelation `json:"relations"`
}

// SalesBOM returns the product's bundle component relations in declaration order.
func (p Product) SalesBOM() []ProductRelation {
	var out []ProductRelation
	for _, rel := range p.Relations {
		if rel.Type == RelationSalesBOM {
			out = append(out, rel)
		}
	}
	return out
}
