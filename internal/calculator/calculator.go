package calculator

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/pos"
	"github.com/noah-isme/backend-pos/internal/tax"
)

// Calculator computes per-item net, tax and cross prices with the configured
// rounding applied at each stage. Scales are reloadable at runtime from the
// gateway system configuration; a recompute in flight keeps the scales it
// started with.
type Calculator struct {
	mu     sync.RWMutex
	cfg    Config
	logger zerolog.Logger
}

// New constructs a calculator with the default stage scales.
func New(logger zerolog.Logger) *Calculator {
	return &Calculator{
		cfg:    DefaultConfig(),
		logger: logger.With().Str("component", "calculator").Logger(),
	}
}

// Config returns the currently active stage scales.
func (c *Calculator) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// ApplySystemConfig updates the stage scales from the gateway system config
// payload. Missing or unparseable fields keep their previous value; invalid
// values are logged, never returned as errors.
func (c *Calculator) ApplySystemConfig(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, field := range []struct {
		key  string
		dest *int32
	}{
		{"NetPriceScale", &c.cfg.NetPriceScale},
		{"ItemTaxScale", &c.cfg.ItemTaxScale},
		{"CrossPriceScale", &c.cfg.CrossPriceScale},
	} {
		next, invalid := parseScale(values, field.key, *field.dest)
		if invalid {
			c.logger.Warn().Str("field", field.key).Str("value", values[field.key]).
				Msg("unparseable calculator scale, keeping previous")
			continue
		}
		*field.dest = next
	}
}

// ItemNetPrice returns the rounded net price for a ticket line. Child items
// are priced at zero.
func (c *Calculator) ItemNetPrice(item pos.Item) decimal.Decimal {
	if item.IsChild() {
		return decimal.Zero
	}
	return c.netPrice(item.Quantity, item.Product.NetPrice)
}

// ItemCrossPrice returns the rounded tax-inclusive price for a ticket line.
// Child items are priced at zero.
func (c *Calculator) ItemCrossPrice(item pos.Item) decimal.Decimal {
	if item.IsChild() {
		return decimal.Zero
	}
	return c.CrossPrice(item.Quantity, item.Product)
}

// CrossPrice computes the tax-inclusive price for a quantity of a product:
// net price, then the tax amount rounded at the item tax scale, then the sum
// rounded at the cross price scale.
func (c *Calculator) CrossPrice(quantity decimal.Decimal, product pos.Product) decimal.Decimal {
	netPrice := c.netPrice(quantity, product.NetPrice)
	taxAmount := c.roundTaxAmount(tax.Calc(netPrice, quantity, product.Taxes...))
	return c.roundCrossPrice(netPrice.Add(taxAmount))
}

// ItemTaxEntries returns one entry per tax on the line's product. Entry
// amounts stay unrounded; aggregation rounds them once at the end. The base
// is the quantity for per-unit taxes and the net price otherwise. Child items
// carry no entries.
func (c *Calculator) ItemTaxEntries(item pos.Item) []pos.TaxEntry {
	if item.IsChild() {
		return nil
	}
	netPrice := c.netPrice(item.Quantity, item.Product.NetPrice)
	entries := make([]pos.TaxEntry, 0, len(item.Product.Taxes))
	for _, t := range item.Product.Taxes {
		base := netPrice
		if t.Type == pos.TaxPerUnit {
			base = item.Quantity
		}
		entries = append(entries, pos.TaxEntry{
			Tax:          t,
			Base:         base,
			Amount:       tax.Calc(netPrice, item.Quantity, t),
			Currency:     item.Currency,
			ExchangeRate: item.ExchangeRate,
		})
	}
	return entries
}

func (c *Calculator) netPrice(quantity, netUnitPrice decimal.Decimal) decimal.Decimal {
	c.mu.RLock()
	scale := c.cfg.NetPriceScale
	c.mu.RUnlock()
	return netUnitPrice.Mul(quantity).Round(scale)
}

func (c *Calculator) roundTaxAmount(amount decimal.Decimal) decimal.Decimal {
	c.mu.RLock()
	scale := c.cfg.ItemTaxScale
	c.mu.RUnlock()
	return amount.Round(scale)
}

func (c *Calculator) roundCrossPrice(crossPrice decimal.Decimal) decimal.Decimal {
	c.mu.RLock()
	scale := c.cfg.CrossPriceScale
	c.mu.RUnlock()
	return crossPrice.Round(scale)
}
