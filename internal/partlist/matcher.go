package partlist

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/pos"
)

// Recipe is a bundle product together with the composition tokens derived
// from its SALESBOM relations, in catalog declaration order.
type Recipe struct {
	Product pos.Product
	tokens  []string
}

// NewRecipe derives a recipe from a part-list product. It reports false when
// the product declares no SALESBOM components.
func NewRecipe(product pos.Product) (Recipe, bool) {
	bom := product.SalesBOM()
	if len(bom) == 0 {
		return Recipe{}, false
	}
	tokens := make([]string, 0, len(bom))
	for _, rel := range bom {
		tokens = append(tokens, token(rel.Quantity, rel.ProductOID))
	}
	return Recipe{Product: product, tokens: tokens}, true
}

// Recipes derives recipes from the part-list products, keeping catalog order.
func Recipes(products []pos.Product) []Recipe {
	out := make([]Recipe, 0, len(products))
	for _, p := range products {
		if recipe, ok := NewRecipe(p); ok {
			out = append(out, recipe)
		}
	}
	return out
}

// token encodes one quantity/product pair of a composition signature.
// Decimal formatting trims trailing zeros, so "2.0" and "2" encode alike.
func token(quantity decimal.Decimal, productOID string) string {
	return quantity.String() + "-" + productOID
}

// Match returns the first recipe whose composition tokens are all present in
// the ticket's signature. Quantities must match exactly, not as a minimum.
// Child lines are already consumed by a bundle and stay out of the signature,
// and a recipe whose bundle product is already on the ticket never matches
// again, which makes repeated application a no-op.
func Match(ticket []pos.Item, recipes []Recipe) (Recipe, bool) {
	quantities := map[string]decimal.Decimal{}
	present := map[string]bool{}
	for _, item := range ticket {
		if item.IsChild() {
			continue
		}
		oid := item.Product.OID
		quantities[oid] = quantities[oid].Add(item.Quantity)
		present[oid] = true
	}
	signature := make(map[string]bool, len(quantities))
	for oid, qty := range quantities {
		signature[token(qty, oid)] = true
	}

	for _, recipe := range recipes {
		if present[recipe.Product.OID] {
			continue
		}
		hit := true
		for _, tok := range recipe.tokens {
			if !signature[tok] {
				hit = false
				break
			}
		}
		if hit {
			return recipe, true
		}
	}
	return Recipe{}, false
}

// Apply rewrites the ticket for a matched recipe. Component quantities are
// consumed line by line in ticket order: fully consumed lines become child
// lines of the bundle, a partially consumed line is split into a remainder
// and a child part. Untouched lines pass through unchanged. One line for the
// bundle product is appended at quantity one, priced at the bundle's cross
// price.
func Apply(ticket []pos.Item, recipe Recipe) []pos.Item {
	needed := map[string]decimal.Decimal{}
	for _, rel := range recipe.Product.SalesBOM() {
		needed[rel.ProductOID] = needed[rel.ProductOID].Add(rel.Quantity)
	}

	out := make([]pos.Item, 0, len(ticket)+1)
	for _, item := range ticket {
		remaining := needed[item.Product.OID]
		if item.IsChild() || !remaining.IsPositive() {
			out = append(out, item)
			continue
		}
		if item.Quantity.LessThanOrEqual(remaining) {
			needed[item.Product.OID] = remaining.Sub(item.Quantity)
			item.ParentOID = recipe.Product.OID
			out = append(out, item)
			continue
		}
		needed[item.Product.OID] = decimal.Zero
		rest := item
		rest.Quantity = item.Quantity.Sub(remaining)
		out = append(out, rest)

		consumed := item
		consumed.ID = uuid.New()
		consumed.Quantity = remaining
		consumed.ParentOID = recipe.Product.OID
		out = append(out, consumed)
	}

	bundle := pos.Item{
		ID:           uuid.New(),
		Product:      recipe.Product,
		Quantity:     decimal.NewFromInt(1),
		Price:        recipe.Product.CrossPrice,
		Currency:     recipe.Product.Currency,
		ExchangeRate: decimal.NewFromInt(1),
	}
	if len(ticket) > 0 {
		bundle.Currency = ticket[0].Currency
		bundle.ExchangeRate = ticket[0].ExchangeRate
	}
	return append(out, bundle)
}
