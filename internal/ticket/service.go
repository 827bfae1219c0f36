package ticket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/calculator"
	"github.com/noah-isme/backend-pos/internal/events"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/partlist"
	"github.com/noah-isme/backend-pos/internal/pos"
)

// ErrNotFound indicates the referenced ticket line does not exist.
var ErrNotFound = errors.New("ticket: line not found")

// ErrInvalidInput is returned when the provided mutation is invalid.
var ErrInvalidInput = errors.New("ticket: invalid input")

// Snapshot pairs a ticket with the totals calculated for exactly that ticket.
// The two always travel together; observers never see one without the other.
type Snapshot struct {
	Ticket []pos.Item `json:"ticket"`
	Totals pos.Totals `json:"totals"`
}

// Documents persists order payloads, typically the gateway client.
type Documents interface {
	CreateOrder(ctx context.Context, order pos.Order) (pos.Order, error)
}

// Service orchestrates the recompute pipeline: bundle substitution, per-line
// pricing and totals aggregation run synchronously on every ticket mutation,
// and the resulting snapshot replaces the previous one wholesale.
type Service struct {
	PartLists *partlist.Service
	Calc      *calculator.Calculator
	Bus       *events.Bus
	Documents Documents
	Logger    zerolog.Logger

	// writeMu serializes mutations end to end so overlapping calls cannot
	// both start from the same base ticket and drop each other's lines. mu
	// only guards field access and stays cheap for readers.
	writeMu sync.Mutex

	mu           sync.Mutex
	snapshot     Snapshot
	flags        pos.WorkspaceFlag
	currency     string
	exchangeRate decimal.Decimal
	contactOID   string
}

// NewService constructs a ticket service with an empty ticket.
func NewService(partLists *partlist.Service, calc *calculator.Calculator, bus *events.Bus, docs Documents, logger zerolog.Logger) *Service {
	return &Service{
		PartLists: partLists,
		Calc:      calc,
		Bus:       bus,
		Documents: docs,
		Logger:    logger.With().Str("component", "ticket").Logger(),
		snapshot: Snapshot{
			Ticket: []pos.Item{},
			Totals: pos.ZeroTotals(),
		},
		currency:     "USD",
		exchangeRate: decimal.NewFromInt(1),
	}
}

// Snapshot returns the current ticket and totals.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// SetWorkspace installs the workspace context; its flags apply to all
// subsequent recomputes. A recompute in flight keeps the flags it started
// with.
func (s *Service) SetWorkspace(ws pos.Workspace) {
	s.mu.Lock()
	s.flags = ws.Flags
	s.mu.Unlock()
	s.Logger.Info().Str("workspace_oid", ws.OID).Uint32("flags", uint32(ws.Flags)).Msg("workspace updated")
}

// SetCurrency sets the currency new lines and orders are priced in.
func (s *Service) SetCurrency(code string) {
	if code == "" {
		return
	}
	s.mu.Lock()
	s.currency = code
	s.mu.Unlock()
}

// SetContact assigns the contact the next order is created for.
func (s *Service) SetContact(oid string) {
	s.mu.Lock()
	s.contactOID = oid
	s.mu.Unlock()
}

// AddItem appends a line for the given product and recomputes.
func (s *Service) AddItem(ctx context.Context, product pos.Product, quantity decimal.Decimal, remark string) (Snapshot, error) {
	if !quantity.IsPositive() {
		return Snapshot{}, errors.Join(ErrInvalidInput, errors.New("quantity must be positive"))
	}
	s.mu.Lock()
	currency := s.currency
	exchangeRate := s.exchangeRate
	s.mu.Unlock()
	return s.apply(ctx, func(ticket []pos.Item) []pos.Item {
		return append(ticket, pos.Item{
			ID:           uuid.New(),
			Product:      product,
			Quantity:     quantity,
			Currency:     currency,
			ExchangeRate: exchangeRate,
			Remark:       remark,
		})
	}), nil
}

// SetQuantity changes the quantity of an existing line and recomputes. Lines
// consumed by a bundle cannot be edited directly.
func (s *Service) SetQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (Snapshot, error) {
	if !quantity.IsPositive() {
		return Snapshot{}, errors.Join(ErrInvalidInput, errors.New("quantity must be positive"))
	}
	found := false
	var childEdit bool
	snap := s.apply(ctx, func(ticket []pos.Item) []pos.Item {
		for i := range ticket {
			if ticket[i].ID != id {
				continue
			}
			if ticket[i].IsChild() {
				childEdit = true
				return ticket
			}
			found = true
			ticket[i].Quantity = quantity
			return ticket
		}
		return ticket
	})
	if childEdit {
		return Snapshot{}, errors.Join(ErrInvalidInput, errors.New("bundle component lines cannot be edited"))
	}
	if !found {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// RemoveItem deletes a line and recomputes. Removing a bundle line also
// releases its component lines back to regular pricing.
func (s *Service) RemoveItem(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	found := false
	snap := s.apply(ctx, func(ticket []pos.Item) []pos.Item {
		out := ticket[:0]
		var parentOID string
		for _, item := range ticket {
			if item.ID == id {
				found = true
				parentOID = item.Product.OID
				continue
			}
			out = append(out, item)
		}
		if !found {
			return ticket
		}
		for i := range out {
			if parentOID != "" && out[i].ParentOID == parentOID {
				out[i].ParentOID = ""
			}
		}
		return out
	})
	if !found {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// LoadOrder replaces the ticket with the lines of a previously persisted
// order, in document index order, and recomputes.
func (s *Service) LoadOrder(ctx context.Context, order pos.Order) Snapshot {
	s.mu.Lock()
	if order.ContactOID != "" {
		s.contactOID = order.ContactOID
	}
	currency := s.currency
	exchangeRate := s.exchangeRate
	s.mu.Unlock()
	return s.apply(ctx, func([]pos.Item) []pos.Item {
		items := make([]pos.Item, 0, len(order.Items))
		for _, docItem := range sortedByIndex(order.Items) {
			items = append(items, pos.Item{
				ID:           uuid.New(),
				Product:      docItem.Product,
				Quantity:     docItem.Quantity,
				Price:        docItem.CrossPrice,
				Currency:     currency,
				ExchangeRate: exchangeRate,
				Remark:       docItem.Remark,
			})
		}
		return items
	})
}

// Reset clears the ticket.
func (s *Service) Reset(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.contactOID = ""
	s.mu.Unlock()
	return s.apply(ctx, func([]pos.Item) []pos.Item {
		return []pos.Item{}
	})
}

// Recompute runs the full pipeline over the given ticket without touching the
// service state: bundle substitution, per-line cross price overwrite, then
// totals aggregation.
func (s *Service) Recompute(ctx context.Context, ticket []pos.Item) Snapshot {
	s.mu.Lock()
	flags := s.flags
	s.mu.Unlock()
	return s.recompute(ctx, ticket, flags)
}

func (s *Service) recompute(ctx context.Context, ticket []pos.Item, flags pos.WorkspaceFlag) Snapshot {
	start := time.Now()
	if s.PartLists != nil {
		ticket = s.PartLists.UpdateTicket(ctx, ticket)
	}
	for i := range ticket {
		ticket[i].Price = s.Calc.ItemCrossPrice(ticket[i])
	}
	totals := s.Calc.Totals(ticket, flags)
	if obs.RecomputeTotal != nil {
		obs.RecomputeTotal.Inc()
	}
	if obs.RecomputeDuration != nil {
		obs.RecomputeDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	return Snapshot{Ticket: ticket, Totals: totals}
}

// apply runs a mutation against a copy of the current ticket, recomputes and
// atomically installs the resulting snapshot before publishing it. The
// previous snapshot is never edited in place, so readers holding it see a
// consistent ticket/totals pair forever. Mutations are serialized, so every
// line survives concurrent calls and snapshots publish in install order.
func (s *Service) apply(ctx context.Context, mutate func([]pos.Item) []pos.Item) Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	working := make([]pos.Item, len(s.snapshot.Ticket))
	copy(working, s.snapshot.Ticket)
	flags := s.flags
	s.mu.Unlock()

	snap := s.recompute(ctx, mutate(working), flags)

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicTicketUpdated, snap); err != nil {
			s.Logger.Error().Err(err).Msg("publish ticket snapshot")
		}
	}
	return snap
}

func sortedByIndex(items []pos.DocItem) []pos.DocItem {
	out := make([]pos.DocItem, len(items))
	copy(out, items)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Index < out[j-1].Index; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
