package calculator_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/calculator"
	"github.com/noah-isme/backend-pos/internal/pos"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func igv(t *testing.T) pos.Tax {
	return pos.Tax{OID: "1.1", Key: "IGV", CatKey: "CAT", Name: "IGV", Type: pos.TaxAdvalorem, Percent: dec(t, "18")}
}

func item(t *testing.T, netPrice, qty string, taxes ...pos.Tax) pos.Item {
	return pos.Item{
		Product: pos.Product{
			OID:      "123.12",
			Type:     pos.ProductTypeStandard,
			NetPrice: dec(t, netPrice),
			Taxes:    taxes,
		},
		Quantity:     dec(t, qty),
		Currency:     "PEN",
		ExchangeRate: decimal.NewFromInt(1),
	}
}

func TestItemNetPriceRoundsAtNetScale(t *testing.T) {
	calc := calculator.New(zerolog.Nop())
	it := item(t, "3.3333", "3", igv(t))
	// 3.3333 * 3 = 9.9999 stays within the default four decimal places.
	require.True(t, calc.ItemNetPrice(it).Equal(dec(t, "9.9999")))

	it = item(t, "1.23456", "1", igv(t))
	require.True(t, calc.ItemNetPrice(it).Equal(dec(t, "1.2346")))
}

func TestItemCrossPriceStageRounding(t *testing.T) {
	calc := calculator.New(zerolog.Nop())
	it := item(t, "8.48", "1", igv(t))
	// net 8.48, tax 1.5264, cross 10.0064 at the default scales.
	require.True(t, calc.ItemCrossPrice(it).Equal(dec(t, "10.0064")))
}

func TestChildItemsArePricedZero(t *testing.T) {
	calc := calculator.New(zerolog.Nop())
	it := item(t, "250.00", "2", igv(t))
	it.ParentOID = "900.1"
	require.True(t, calc.ItemNetPrice(it).IsZero())
	require.True(t, calc.ItemCrossPrice(it).IsZero())
	require.Empty(t, calc.ItemTaxEntries(it))
}

func TestItemTaxEntriesBases(t *testing.T) {
	calc := calculator.New(zerolog.Nop())
	perUnit := pos.Tax{OID: "2.2", Key: "ISC", Name: "ISC", Type: pos.TaxPerUnit, Percent: dec(t, "0.30")}
	it := item(t, "10.00", "3", igv(t), perUnit)

	entries := calc.ItemTaxEntries(it)
	require.Len(t, entries, 2)

	require.Equal(t, "IGV", entries[0].Tax.Name)
	require.True(t, entries[0].Base.Equal(dec(t, "30")), "advalorem base is the net price")
	require.True(t, entries[0].Amount.Equal(dec(t, "5.4")))

	require.Equal(t, "ISC", entries[1].Tax.Name)
	require.True(t, entries[1].Base.Equal(dec(t, "3")), "per-unit base is the quantity")
	require.True(t, entries[1].Amount.Equal(dec(t, "0.9")))
}

func TestApplySystemConfig(t *testing.T) {
	calc := calculator.New(zerolog.Nop())

	calc.ApplySystemConfig(map[string]string{
		"NetPriceScale":   "2",
		"ItemTaxScale":    "3",
		"CrossPriceScale": "2",
	})
	cfg := calc.Config()
	require.Equal(t, int32(2), cfg.NetPriceScale)
	require.Equal(t, int32(3), cfg.ItemTaxScale)
	require.Equal(t, int32(2), cfg.CrossPriceScale)

	// Unparseable and missing fields keep the previous values.
	calc.ApplySystemConfig(map[string]string{
		"NetPriceScale": "not-a-number",
		"ItemTaxScale":  "4",
	})
	cfg = calc.Config()
	require.Equal(t, int32(2), cfg.NetPriceScale)
	require.Equal(t, int32(4), cfg.ItemTaxScale)
	require.Equal(t, int32(2), cfg.CrossPriceScale)
}

func TestNetPriceScaleAffectsComputation(t *testing.T) {
	calc := calculator.New(zerolog.Nop())
	calc.ApplySystemConfig(map[string]string{"NetPriceScale": "2"})
	it := item(t, "1.2345", "1")
	require.True(t, calc.ItemNetPrice(it).Equal(dec(t, "1.23")))
}
