package proposal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leasing-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProposalApp(t *testing.T) *fiber.App {
	t.Helper()
	svc, store := newTestService(t, summer)
	app := fiber.New()
	app.Post("/proposals/preview", PreviewHandler(svc))
	app.Post("/proposals/drafts", SaveDraftHandler(svc))
	app.Post("/proposals/submit", SubmitHandler(svc))
	app.Post("/proposals/items/:action", LineItemsHandler(store))
	app.Get("/proposals/summary", SummaryHandler(svc))
	app.Get("/proposals/products", ProductsHandler())
	app.Get("/proposals/eligible-suppliers", EligibleSuppliersHandler(svc))
	app.Get("/proposals", ListHandler(svc))
	app.Get("/proposals/:id", GetHandler(svc))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPreviewHandler(t *testing.T) {
	app := newProposalApp(t)

	var q Quote
	status := postJSON(t, app, "/proposals/preview", completePayload(), &q)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, pricing.TypeStandard, q.Resolution.Source)
	assert.Len(t, q.Rows, 36)
}

func TestSubmitHandler_Unprocessable(t *testing.T) {
	app := newProposalApp(t)

	var body struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing_fields"`
	}
	status := postJSON(t, app, "/proposals/submit", Payload{Client: ClientInfo{Type: ClientTypeClient}}, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body.Missing, "items")
	assert.NotEmpty(t, body.Error)
}

func TestSubmitThenFetch(t *testing.T) {
	app := newProposalApp(t)

	var r Receipt
	require.Equal(t, http.StatusCreated, postJSON(t, app, "/proposals/submit", completePayload(), &r))
	require.NotEmpty(t, r.ID)

	var got Stored
	require.Equal(t, http.StatusOK, getJSON(t, app, "/proposals/"+r.ID, &got))
	assert.Equal(t, "Awa Diop", got.ClientName)

	p := completePayload()
	p.ID = r.ID
	assert.Equal(t, http.StatusConflict, postJSON(t, app, "/proposals/drafts", p, nil))

	var list []ListItem
	require.Equal(t, http.StatusOK, getJSON(t, app, "/proposals?status=submitted", &list))
	assert.Len(t, list, 1)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, app, "/proposals?status=archived", nil))

	var sum PipelineSummary
	require.Equal(t, http.StatusOK, getJSON(t, app, "/proposals/summary", &sum))
	assert.Equal(t, int64(1), sum.Submitted)

	assert.Equal(t, http.StatusNotFound, getJSON(t, app, "/proposals/unknown", nil))
}

func TestEligibleSuppliersHandler(t *testing.T) {
	app := newProposalApp(t)

	var body struct {
		Suppliers []string `json:"suppliers"`
	}
	status := getJSON(t, app, "/proposals/eligible-suppliers?proposal_type=convention&convention_id=conv-equipement-industriel", &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"afrique-materiel", "sonacos"}, body.Suppliers)

	assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, app, "/proposals/eligible-suppliers?proposal_type=leasing", nil))
}

func TestProductsHandler(t *testing.T) {
	app := newProposalApp(t)
	var out []map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, app, "/proposals/products", &out))
	assert.Len(t, out, 5)
	assert.Contains(t, out, map[string]string{"product": "credit-bail", "code": "CB001"})
}

func TestLineItemsHandler(t *testing.T) {
	app := newProposalApp(t)

	var resp LineItemResponse
	require.Equal(t, http.StatusOK, postJSON(t, app, "/proposals/items/equipment", LineItemRequest{Supplier: "babacar-fils"}, &resp))
	require.Len(t, resp.Items, 1)
	items := resp.Items

	resp = LineItemResponse{}
	require.Equal(t, http.StatusOK, postJSON(t, app, "/proposals/items/update",
		LineItemRequest{Items: items, ID: 1, Field: FieldCategory, Value: "Véhicule"}, &resp))
	items = resp.Items

	resp = LineItemResponse{}
	require.Equal(t, http.StatusOK, postJSON(t, app, "/proposals/items/update",
		LineItemRequest{Items: items, ID: 1, Field: FieldDescription, Value: "Camion Isuzu NPR"}, &resp))
	require.NotNil(t, resp.Item)
	assert.Equal(t, "VEH002", resp.Item.Reference)
	assert.Equal(t, "29500000", resp.Totals.TotalInclTax.String())
	items = resp.Items

	resp = LineItemResponse{}
	require.Equal(t, http.StatusOK, postJSON(t, app, "/proposals/items/component", LineItemRequest{Items: items, ParentID: 1}, &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "babacar-fils", resp.Items[1].Supplier)
	items = resp.Items

	resp = LineItemResponse{}
	require.Equal(t, http.StatusOK, postJSON(t, app, "/proposals/items/remove", LineItemRequest{Items: items, ID: 1}, &resp))
	assert.Equal(t, []int{1, 2}, resp.Removed)
	assert.Empty(t, resp.Items)

	assert.Equal(t, http.StatusNotFound, postJSON(t, app, "/proposals/items/component", LineItemRequest{ParentID: 7}, nil))
	assert.Equal(t, http.StatusNotFound, postJSON(t, app, "/proposals/items/rename", LineItemRequest{}, nil))
}

func TestPreviewHandler_PeriodCap(t *testing.T) {
	app := newProposalApp(t)

	p := completePayload()
	p.Terms.Periods = 9_000_000_000_000
	var body struct {
		Invalid map[string]string `json:"invalid_fields"`
	}
	status := postJSON(t, app, "/proposals/preview", p, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body.Invalid, "terms.periods")

	var r Receipt
	require.Equal(t, http.StatusCreated, postJSON(t, app, "/proposals/drafts", p, &r))
	assert.Empty(t, r.Quote.Rows)

	var got Stored
	require.Equal(t, http.StatusOK, getJSON(t, app, "/proposals/"+r.ID, &got))
	assert.Empty(t, got.Quote.Rows)
	assert.Equal(t, 9_000_000_000_000, got.Payload.Terms.Periods)
}

func TestLineItemsHandler_UnboundedAmounts(t *testing.T) {
	app := newProposalApp(t)

	raw := json.RawMessage(`{"items":[{"id":1,"kind":"equipment","quantity":"1e-400000000"}],"id":1,"field":"quantity","value":"2"}`)
	assert.Equal(t, http.StatusBadRequest, postJSON(t, app, "/proposals/items/update", raw, nil))

	var resp LineItemResponse
	require.Equal(t, http.StatusOK, postJSON(t, app, "/proposals/items/update",
		LineItemRequest{Items: []LineItem{{ID: 1, Kind: KindEquipment, Quantity: dec("1")}}, ID: 1, Field: FieldQuantity, Value: "1e-400000000"}, &resp))
	require.NotNil(t, resp.Item)
	assert.True(t, resp.Item.Quantity.IsZero())
}
