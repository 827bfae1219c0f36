package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/gateway"
	"github.com/noah-isme/backend-pos/internal/pos"
)

type fakeCatalog struct {
	products map[string]pos.Product
}

func (f *fakeCatalog) Product(_ context.Context, oid string) (pos.Product, error) {
	p, ok := f.products[oid]
	if !ok {
		return pos.Product{}, gateway.ErrNotFound
	}
	return p, nil
}

func newTestRouter(t *testing.T, svc *Service, catalog Catalog) *chi.Mux {
	t.Helper()
	h := &Handler{Svc: svc, Catalog: catalog, Validate: validator.New()}
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestHandlerAddItem(t *testing.T) {
	svc := newTestService(t, nil, nil)
	catalog := &fakeCatalog{products: map[string]pos.Product{
		"p1": product("p1", "8.48", igv()),
	}}
	r := newTestRouter(t, svc, catalog)

	rec := doJSON(t, r, http.MethodPost, "/ticket/items", map[string]any{
		"productOid": "p1",
		"quantity":   "1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var snap Snapshot
	decodeData(t, rec, &snap)
	require.Len(t, snap.Ticket, 1)
	require.Equal(t, "10.01", snap.Totals.CrossTotal.String())
}

func TestHandlerAddItemUnknownProduct(t *testing.T) {
	svc := newTestService(t, nil, nil)
	r := newTestRouter(t, svc, &fakeCatalog{})

	rec := doJSON(t, r, http.MethodPost, "/ticket/items", map[string]any{
		"productOid": "missing",
		"quantity":   "1",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerAddItemValidation(t *testing.T) {
	svc := newTestService(t, nil, nil)
	r := newTestRouter(t, svc, &fakeCatalog{})

	rec := doJSON(t, r, http.MethodPost, "/ticket/items", map[string]any{"quantity": "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/ticket/items", map[string]any{
		"productOid": "p1",
		"quantity":   "not-a-number",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateItem(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	r := newTestRouter(t, svc, &fakeCatalog{})

	path := fmt.Sprintf("/ticket/items/%s", snap.Ticket[0].ID)
	rec := doJSON(t, r, http.MethodPatch, path, map[string]any{"quantity": "2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Snapshot
	decodeData(t, rec, &updated)
	require.Equal(t, "20.01", updated.Totals.CrossTotal.String())
}

func TestHandlerUpdateItemNotFound(t *testing.T) {
	svc := newTestService(t, nil, nil)
	r := newTestRouter(t, svc, &fakeCatalog{})

	path := fmt.Sprintf("/ticket/items/%s", uuid.New())
	rec := doJSON(t, r, http.MethodPatch, path, map[string]any{"quantity": "2"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerUpdateItemBadID(t *testing.T) {
	svc := newTestService(t, nil, nil)
	r := newTestRouter(t, svc, &fakeCatalog{})

	rec := doJSON(t, r, http.MethodPatch, "/ticket/items/not-a-uuid", map[string]any{"quantity": "2"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRemoveItem(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	r := newTestRouter(t, svc, &fakeCatalog{})

	path := fmt.Sprintf("/ticket/items/%s", snap.Ticket[0].ID)
	rec := doJSON(t, r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Snapshot
	decodeData(t, rec, &updated)
	require.Empty(t, updated.Ticket)
}

func TestHandlerGetAndTotals(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	r := newTestRouter(t, svc, &fakeCatalog{})

	rec := doJSON(t, r, http.MethodGet, "/ticket", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap Snapshot
	decodeData(t, rec, &snap)
	require.Len(t, snap.Ticket, 1)

	rec = doJSON(t, r, http.MethodGet, "/ticket/totals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var totals pos.Totals
	decodeData(t, rec, &totals)
	require.Equal(t, "10.01", totals.CrossTotal.String())
}

func TestHandlerReset(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	r := newTestRouter(t, svc, &fakeCatalog{})

	rec := doJSON(t, r, http.MethodDelete, "/ticket", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, svc.Snapshot().Ticket)
}

func TestHandlerCreateOrder(t *testing.T) {
	docs := &fakeDocuments{}
	svc := newTestService(t, nil, docs)
	_, err := svc.AddItem(context.Background(), product("p1", "8.48", igv()), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	r := newTestRouter(t, svc, &fakeCatalog{})

	rec := doJSON(t, r, http.MethodPost, "/orders", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order pos.Order
	decodeData(t, rec, &order)
	require.Equal(t, "ORD-0001", order.Number)
	// Successful submission clears the ticket for the next sale.
	require.Empty(t, svc.Snapshot().Ticket)
}

func TestHandlerCreateOrderEmptyTicket(t *testing.T) {
	svc := newTestService(t, nil, &fakeDocuments{})
	r := newTestRouter(t, svc, &fakeCatalog{})

	rec := doJSON(t, r, http.MethodPost, "/orders", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}
