package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/pos"
	"github.com/noah-isme/backend-pos/internal/tax"
)

// totalsScale is the fixed scale of ticket-level aggregates.
const totalsScale = 2

// Totals aggregates net, cross and per-tax-name amounts across the ticket in
// a single pass. Line contributions enter at their stage scales; the
// aggregates and the tax buckets are rounded to two decimals exactly once at
// the end, never summed from pre-rounded totals. The payable amount follows
// the workspace rounding flag.
func (c *Calculator) Totals(items []pos.Item, flags pos.WorkspaceFlag) pos.Totals {
	netTotal := decimal.Zero
	crossTotal := decimal.Zero
	buckets := map[string]decimal.Decimal{}

	for _, item := range items {
		if item.IsChild() {
			continue
		}
		netPrice := c.netPrice(item.Quantity, item.Product.NetPrice)
		itemTax := decimal.Zero
		for _, t := range item.Product.Taxes {
			amount := tax.Calc(netPrice, item.Quantity, t)
			buckets[t.Name] = buckets[t.Name].Add(amount)
			itemTax = itemTax.Add(amount)
		}
		crossPrice := c.roundCrossPrice(netPrice.Add(c.roundTaxAmount(itemTax)))

		netTotal = netTotal.Add(netPrice)
		crossTotal = crossTotal.Add(crossPrice)
	}

	totals := pos.Totals{
		NetTotal:   netTotal.Round(totalsScale),
		CrossTotal: crossTotal.Round(totalsScale),
		Taxes:      make(map[string]decimal.Decimal, len(buckets)),
	}
	for name, amount := range buckets {
		totals.Taxes[name] = amount.Round(totalsScale)
	}
	if flags.Has(pos.FlagRoundPayableAmount) {
		totals.PayableAmount = totals.CrossTotal.RoundFloor(1)
	} else {
		totals.PayableAmount = totals.CrossTotal
	}
	return totals
}

// TotalTaxEntries groups the per-item tax entries of the ticket by tax name,
// summing raw bases and amounts and rounding both to two decimals only after
// the sum. Entries keep the order in which their tax first appears on the
// ticket.
func (c *Calculator) TotalTaxEntries(items []pos.Item) []pos.TaxEntry {
	index := map[string]int{}
	var entries []pos.TaxEntry
	for _, item := range items {
		for _, entry := range c.ItemTaxEntries(item) {
			i, ok := index[entry.Tax.Name]
			if !ok {
				index[entry.Tax.Name] = len(entries)
				entries = append(entries, pos.TaxEntry{
					Tax:          entry.Tax,
					Base:         decimal.Zero,
					Amount:       decimal.Zero,
					Currency:     entry.Currency,
					ExchangeRate: entry.ExchangeRate,
				})
				i = len(entries) - 1
			}
			entries[i].Base = entries[i].Base.Add(entry.Base)
			entries[i].Amount = entries[i].Amount.Add(entry.Amount)
		}
	}
	for i := range entries {
		entries[i].Base = entries[i].Base.Round(totalsScale)
		entries[i].Amount = entries[i].Amount.Round(totalsScale)
	}
	return entries
}
