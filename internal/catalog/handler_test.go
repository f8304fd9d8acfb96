package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	items    []Item
	upserted []Item
}

func (f *fakeCatalog) Suppliers(context.Context) ([]string, error) {
	return []string{"babacar-fils"}, nil
}

func (f *fakeCatalog) Items(_ context.Context, supplier string) ([]Item, error) {
	out := []Item{}
	for _, it := range f.items {
		if it.Supplier == supplier {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpsertItems(_ context.Context, items []Item) (int, error) {
	f.upserted = append(f.upserted, items...)
	return len(items), nil
}

func newApp(f *fakeCatalog) *fiber.App {
	app := fiber.New()
	app.Get("/suppliers", ListSuppliersHandler(f))
	app.Get("/suppliers/:supplier/items", ListItemsHandler(f))
	app.Get("/suppliers/:supplier/categories", ListCategoriesHandler(f))
	app.Get("/suppliers/:supplier/descriptions", ListDescriptionsHandler(f))
	app.Post("/import", ImportXLSXHandler(f))
	app.Get("/export", ExportXLSXHandler(func(context.Context) ([]Item, error) { return f.items, nil }))
	return app
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

func TestBrowseHandlers(t *testing.T) {
	app := newApp(&fakeCatalog{items: sample()})

	var suppliers []string
	require.Equal(t, http.StatusOK, getJSON(t, app, "/suppliers", &suppliers))
	assert.Equal(t, []string{"babacar-fils"}, suppliers)

	var cats []string
	require.Equal(t, http.StatusOK, getJSON(t, app, "/suppliers/babacar-fils/categories", &cats))
	assert.Equal(t, []string{"Véhicule", "Équipement"}, cats)

	var items []Item
	require.Equal(t, http.StatusOK, getJSON(t, app, "/suppliers/babacar-fils/items?category=%C3%89quipement", &items))
	require.Len(t, items, 1)
	assert.Equal(t, "EQUIP001", items[0].Reference)

	var descs []string
	require.Equal(t, http.StatusOK, getJSON(t, app, "/suppliers/babacar-fils/descriptions?category=V%C3%A9hicule", &descs))
	assert.Len(t, descs, 2)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, app, "/suppliers/babacar-fils/descriptions", nil))

	items = nil
	require.Equal(t, http.StatusOK, getJSON(t, app, "/suppliers/unknown/items", &items))
	assert.Empty(t, items)
}

func upload(t *testing.T, app *fiber.App, filename string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestImportXLSXHandler(t *testing.T) {
	f := &fakeCatalog{}
	app := newApp(f)

	var wb bytes.Buffer
	require.NoError(t, WriteXLSX(&wb, sample()))

	resp := upload(t, app, "catalogue.XLSX", wb.Bytes())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Imported int        `json:"imported"`
		Errors   []RowError `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 3, out.Imported)
	assert.Empty(t, out.Errors)
	assert.Len(t, f.upserted, 3)

	resp = upload(t, app, "catalogue.csv", []byte("a,b"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload(t, app, "broken.xlsx", []byte("not a zip"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportXLSXHandler(t *testing.T) {
	app := newApp(&fakeCatalog{items: sample()})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/export", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "catalogue.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	res, err := ReadXLSX(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
}
