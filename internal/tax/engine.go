package tax

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/pos"
)

// Calc returns the raw tax amount for the given base price and quantity
// summed across all supplied taxes. ADVALOREM taxes apply their percentage to
// the base price; PERUNIT taxes multiply the quantity by the flat rate. The
// result keeps full precision; rounding is the caller's responsibility. A tax
// with a zero or missing percent contributes nothing.
func Calc(basePrice, quantity decimal.Decimal, taxes ...pos.Tax) decimal.Decimal {
	total := decimal.Zero
	for _, t := range taxes {
		switch t.Type {
		case pos.TaxAdvalorem:
			// percent/100 without a division: scale the product down two places.
			total = total.Add(basePrice.Mul(t.Percent).Shift(-2))
		case pos.TaxPerUnit:
			total = total.Add(quantity.Mul(t.Percent))
		}
	}
	return total
}
