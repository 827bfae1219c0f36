package ticket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/calculator"
	"github.com/noah-isme/backend-pos/internal/events"
	"github.com/noah-isme/backend-pos/internal/partlist"
	"github.com/noah-isme/backend-pos/internal/pos"
)

type fakeSource struct {
	products []pos.Product
}

func (f *fakeSource) ProductsByType(context.Context, pos.ProductType) ([]pos.Product, error) {
	return f.products, nil
}

type fakeDocuments struct {
	received pos.Order
	err      error
}

func (f *fakeDocuments) CreateOrder(_ context.Context, order pos.Order) (pos.Order, error) {
	if f.err != nil {
		return pos.Order{}, f.err
	}
	f.received = order
	created := order
	created.ID = "doc-1"
	created.Number = "ORD-0001"
	return created, nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func igv() pos.Tax {
	return pos.Tax{
		OID:     "tax.1",
		Name:    "IGV",
		Type:    pos.TaxAdvalorem,
		Percent: decimal.NewFromInt(18),
	}
}

func product(oid, netPrice string, taxes ...pos.Tax) pos.Product {
	return pos.Product{
		OID:      oid,
		Type:     pos.ProductTypeStandard,
		NetPrice: decimal.RequireFromString(netPrice),
		Currency: "USD",
		Taxes:    taxes,
	}
}

func newTestService(t *testing.T, catalog []pos.Product, docs Documents) *Service {
	t.Helper()
	parts := &partlist.Service{Source: &fakeSource{products: catalog}, Logger: zerolog.Nop()}
	if len(catalog) > 0 {
		require.NoError(t, parts.Refresh(context.Background()))
	}
	calc := calculator.New(zerolog.Nop())
	return NewService(parts, calc, &events.Bus{}, docs, zerolog.Nop())
}

func TestAddItemRecomputesTotals(t *testing.T) {
	svc := newTestService(t, nil, nil)

	snap, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	require.Len(t, snap.Ticket, 1)
	require.Equal(t, "10.0064", snap.Ticket[0].Price.String())
	require.Equal(t, "10.01", snap.Totals.CrossTotal.String())
	require.Equal(t, "8.48", snap.Totals.NetTotal.String())
	require.True(t, snap.Totals.PayableAmount.Equal(snap.Totals.CrossTotal))
}

func TestWorkspaceFlagFloorsPayable(t *testing.T) {
	svc := newTestService(t, nil, nil)
	svc.SetWorkspace(pos.Workspace{OID: "ws.1", Flags: pos.FlagRoundPayableAmount})

	taxes := []pos.Tax{igv(), {
		OID:     "tax.2",
		Name:    "Municipal",
		Type:    pos.TaxAdvalorem,
		Percent: decimal.NewFromInt(5),
	}}
	snap, err := svc.AddItem(context.Background(), product("p1", "15.37", taxes...), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	require.Equal(t, "18.91", snap.Totals.CrossTotal.String())
	require.Equal(t, "18.9", snap.Totals.PayableAmount.String())
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.AddItem(context.Background(), product("p1", "1.00"), decimal.Zero, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetQuantityRecomputes(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	snap, err = svc.SetQuantity(context.Background(), snap.Ticket[0].ID, decimal.NewFromInt(2))
	require.NoError(t, err)
	require.Equal(t, "20.01", snap.Totals.CrossTotal.String())
}

func TestSetQuantityUnknownLine(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.SetQuantity(context.Background(), uuid.New(), decimal.NewFromInt(2))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveItemUnknownLine(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.RemoveItem(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBundleSubstitutionDuringRecompute(t *testing.T) {
	combo := pos.Product{
		OID:        "100.1",
		Type:       pos.ProductTypePartList,
		NetPrice:   dec(t, "8.39"),
		CrossPrice: dec(t, "9.90"),
		Currency:   "USD",
		Taxes:      []pos.Tax{igv()},
		Relations: []pos.ProductRelation{
			{Type: pos.RelationSalesBOM, ProductOID: "200.1", Quantity: decimal.NewFromInt(1)},
			{Type: pos.RelationSalesBOM, ProductOID: "200.2", Quantity: decimal.NewFromInt(1)},
		},
	}
	svc := newTestService(t, []pos.Product{combo}, nil)

	_, err := svc.AddItem(context.Background(), product("200.1", "3.50", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	snap, err := svc.AddItem(context.Background(), product("200.2", "4.00", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	require.Len(t, snap.Ticket, 3)
	require.True(t, snap.Ticket[0].IsChild())
	require.True(t, snap.Ticket[1].IsChild())
	require.Equal(t, "100.1", snap.Ticket[2].Product.OID)
	require.True(t, snap.Ticket[0].Price.IsZero())
	require.True(t, snap.Ticket[1].Price.IsZero())

	// Only the bundle line prices: 8.39 plus 18 percent.
	require.Equal(t, "9.9", snap.Totals.CrossTotal.String())
}

func TestRemoveBundleReleasesComponents(t *testing.T) {
	combo := pos.Product{
		OID:        "100.1",
		Type:       pos.ProductTypePartList,
		NetPrice:   dec(t, "8.39"),
		CrossPrice: dec(t, "9.90"),
		Currency:   "USD",
		Taxes:      []pos.Tax{igv()},
		Relations: []pos.ProductRelation{
			{Type: pos.RelationSalesBOM, ProductOID: "200.1", Quantity: decimal.NewFromInt(2)},
		},
	}
	svc := newTestService(t, []pos.Product{combo}, nil)

	snap, err := svc.AddItem(context.Background(), product("200.1", "3.50", igv()), decimal.NewFromInt(2), "")
	require.NoError(t, err)
	require.Len(t, snap.Ticket, 2)
	bundleID := snap.Ticket[1].ID

	snap, err = svc.RemoveItem(context.Background(), bundleID)
	require.NoError(t, err)
	// The released component immediately re-matches the recipe.
	require.Len(t, snap.Ticket, 2)
	require.Equal(t, "100.1", snap.Ticket[1].Product.OID)
}

func TestResetClearsTicket(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	snap := svc.Reset(context.Background())
	require.Empty(t, snap.Ticket)
	require.True(t, snap.Totals.CrossTotal.IsZero())
	require.True(t, snap.Totals.PayableAmount.IsZero())
}

func TestEmittedSnapshotMatchesReturned(t *testing.T) {
	svc := newTestService(t, nil, nil)

	var published []Snapshot
	svc.Bus.Subscribe(events.NotifierFunc(func(_ context.Context, event events.Event) error {
		if event.Topic != events.TopicTicketUpdated {
			return nil
		}
		snap, ok := event.Payload.(Snapshot)
		if !ok {
			return errors.New("unexpected payload type")
		}
		published = append(published, snap)
		return nil
	}))

	snap, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, snap, published[0])
	require.True(t, published[0].Totals.CrossTotal.Equal(dec(t, "10.01")))
}

func TestSnapshotIsolation(t *testing.T) {
	svc := newTestService(t, nil, nil)
	first, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), product("p2", "4.24", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	// The earlier snapshot keeps its own ticket/totals pair.
	require.Len(t, first.Ticket, 1)
	require.Equal(t, "10.01", first.Totals.CrossTotal.String())
}

func TestBuildOrderPayload(t *testing.T) {
	combo := pos.Product{
		OID:        "100.1",
		Type:       pos.ProductTypePartList,
		NetPrice:   dec(t, "8.39"),
		CrossPrice: dec(t, "9.90"),
		Currency:   "USD",
		Taxes:      []pos.Tax{igv()},
		Relations: []pos.ProductRelation{
			{Type: pos.RelationSalesBOM, ProductOID: "200.1", Quantity: decimal.NewFromInt(1)},
		},
	}
	svc := newTestService(t, []pos.Product{combo}, nil)
	svc.SetContact("contact.1")

	_, err := svc.AddItem(context.Background(), product("200.1", "3.50", igv()), decimal.NewFromInt(1), "keep warm")
	require.NoError(t, err)

	order, err := svc.BuildOrder()
	require.NoError(t, err)
	require.Equal(t, pos.DocStatusOpen, order.Status)
	require.Equal(t, "contact.1", order.ContactOID)
	require.Len(t, order.Items, 2)

	child := order.Items[0]
	require.Equal(t, 1, child.Index)
	require.Equal(t, "200.1", child.Product.OID)
	require.True(t, child.NetPrice.IsZero())
	require.True(t, child.CrossPrice.IsZero())
	require.Empty(t, child.Taxes)

	bundleLine := order.Items[1]
	require.Equal(t, 2, bundleLine.Index)
	require.Equal(t, "100.1", bundleLine.Product.OID)
	require.Equal(t, "8.39", bundleLine.NetPrice.String())
	require.Len(t, bundleLine.Taxes, 1)
	require.Equal(t, "IGV", bundleLine.Taxes[0].Tax.Name)

	require.Equal(t, order.NetTotal.String(), "8.39")
	require.Equal(t, order.CrossTotal.String(), "9.9")
	require.Len(t, order.Taxes, 1)
}

func TestBuildOrderEmptyTicket(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.BuildOrder()
	require.ErrorIs(t, err, ErrEmptyTicket)
}

func TestCreateOrderSubmitsAndEmits(t *testing.T) {
	docs := &fakeDocuments{}
	svc := newTestService(t, nil, docs)

	var created []pos.Order
	svc.Bus.Subscribe(events.NotifierFunc(func(_ context.Context, event events.Event) error {
		if event.Topic != events.TopicOrderCreated {
			return nil
		}
		created = append(created, event.Payload.(pos.Order))
		return nil
	}))

	_, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	order, err := svc.CreateOrder(context.Background())
	require.NoError(t, err)
	require.Equal(t, "doc-1", order.ID)
	require.Equal(t, "ORD-0001", order.Number)
	require.Len(t, docs.received.Items, 1)
	require.Len(t, created, 1)
	require.Equal(t, "doc-1", created[0].ID)
}

func TestCreateOrderWithoutDocuments(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background())
	require.ErrorIs(t, err, ErrNoDocuments)
}

func TestCreateOrderUpstreamFailure(t *testing.T) {
	docs := &fakeDocuments{err: errors.New("gateway down")}
	svc := newTestService(t, nil, docs)
	_, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background())
	require.Error(t, err)
}

func TestSetCurrencyAppliesToNewLinesAndOrders(t *testing.T) {
	svc := newTestService(t, nil, nil)
	svc.SetCurrency("PEN")
	svc.SetCurrency("")

	snap, err := svc.AddItem(context.Background(), product("p1", "4.20", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	require.Equal(t, "PEN", snap.Ticket[0].Currency)

	order, err := svc.BuildOrder()
	require.NoError(t, err)
	require.Equal(t, "PEN", order.Currency)
}

func TestConcurrentAddItemsKeepEveryLine(t *testing.T) {
	svc := newTestService(t, nil, nil)

	const lines = 100
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < lines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			_, err := svc.AddItem(context.Background(),
				product(fmt.Sprintf("p%d", n), "1.00", igv()),
				decimal.NewFromInt(1), "")
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	snap := svc.Snapshot()
	require.Len(t, snap.Ticket, lines)
	require.Equal(t, "118", snap.Totals.CrossTotal.String())
}

func TestRecomputeLeavesServiceStateUntouched(t *testing.T) {
	svc := newTestService(t, nil, nil)

	scratch := []pos.Item{{
		ID:           uuid.New(),
		Product:      product("p1", "8.48", igv()),
		Quantity:     decimal.NewFromInt(1),
		Currency:     "USD",
		ExchangeRate: decimal.NewFromInt(1),
	}}
	snap := svc.Recompute(context.Background(), scratch)
	require.Equal(t, "10.01", snap.Totals.CrossTotal.String())
	require.Empty(t, svc.Snapshot().Ticket)
}

func TestLoadOrderRestoresTicket(t *testing.T) {
	svc := newTestService(t, nil, nil)
	order := pos.Order{
		ContactOID: "contact.2",
		Items: []pos.DocItem{
			{Index: 2, Product: product("p2", "4.24", igv()), Quantity: decimal.NewFromInt(1)},
			{Index: 1, Product: product("p1", "8.48", igv()), Quantity: decimal.NewFromInt(1)},
		},
	}
	snap := svc.LoadOrder(context.Background(), order)
	require.Len(t, snap.Ticket, 2)
	require.Equal(t, "p1", snap.Ticket[0].Product.OID)
	require.Equal(t, "p2", snap.Ticket[1].Product.OID)
	require.Equal(t, "15.01", snap.Totals.CrossTotal.String())
}
