package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/backend-pos/internal/events"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pos"
)

const docScale = 2

// ErrEmptyTicket is returned when an order is requested for a ticket with no
// lines.
var ErrEmptyTicket = errors.New("ticket: empty ticket")

// ErrNoDocuments is returned when no document collaborator is configured.
var ErrNoDocuments = errors.New("ticket: no document collaborator configured")

// BuildOrder translates the current snapshot into an order document payload.
// Line prices are re-expressed at document scale; bundle component lines stay
// visible with zero amounts.
func (s *Service) BuildOrder() (pos.Order, error) {
	snap := s.Snapshot()
	if len(snap.Ticket) == 0 {
		return pos.Order{}, ErrEmptyTicket
	}

	s.mu.Lock()
	currency := s.currency
	exchangeRate := s.exchangeRate
	contactOID := s.contactOID
	s.mu.Unlock()

	items := make([]pos.DocItem, 0, len(snap.Ticket))
	for i, item := range snap.Ticket {
		docItem := pos.DocItem{
			Index:    i + 1,
			Product:  item.Product,
			Quantity: item.Quantity,
			Remark:   item.Remark,
		}
		if !item.IsChild() {
			docItem.NetUnitPrice = item.Product.NetPrice
			docItem.NetPrice = item.Product.NetPrice.Mul(item.Quantity).Round(docScale)
			docItem.CrossUnitPrice = item.Product.CrossPrice
			docItem.CrossPrice = item.Price
			docItem.Taxes = docTaxes(s.Calc.ItemTaxEntries(item))
		}
		items = append(items, docItem)
	}

	return pos.Order{
		Status:        pos.DocStatusOpen,
		Currency:      currency,
		ExchangeRate:  exchangeRate,
		Items:         items,
		NetTotal:      snap.Totals.NetTotal,
		CrossTotal:    snap.Totals.CrossTotal,
		PayableAmount: snap.Totals.PayableAmount,
		Taxes:         s.Calc.TotalTaxEntries(snap.Ticket),
		ContactOID:    contactOID,
	}, nil
}

// CreateOrder builds an order from the current snapshot and submits it to the
// document collaborator. The ticket is left untouched; clearing it is the
// caller's decision.
func (s *Service) CreateOrder(ctx context.Context) (pos.Order, error) {
	if s.Documents == nil {
		return pos.Order{}, ErrNoDocuments
	}
	order, err := s.BuildOrder()
	if err != nil {
		return pos.Order{}, err
	}
	created, err := s.Documents.CreateOrder(ctx, order)
	if err != nil {
		return pos.Order{}, fmt.Errorf("create order: %w", err)
	}
	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.Inc()
	}
	s.Logger.Info().Str("order_id", created.ID).Str("number", created.Number).Msg("order created")
	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, created); err != nil {
			s.Logger.Error().Err(err).Msg("publish order event")
		}
	}
	return created, nil
}

func docTaxes(entries []pos.TaxEntry) []pos.TaxEntry {
	out := make([]pos.TaxEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Base = entry.Base.Round(docScale)
		entry.Amount = entry.Amount.Round(docScale)
		out = append(out, entry)
	}
	return out
}
