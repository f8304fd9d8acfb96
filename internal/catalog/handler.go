package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Importer persists imported catalog rows.
type Importer interface {
	UpsertItems(ctx context.Context, items []Item) (int, error)
}

// GET /api/catalog/suppliers
func ListSuppliersHandler(p Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := p.Suppliers(c.UserContext())
		if err != nil {
			log.Error().Err(err).Msg("list suppliers")
			return fiber.NewError(fiber.StatusInternalServerError, "could not list suppliers")
		}
		return c.JSON(list)
	}
}

func supplierItems(c *fiber.Ctx, p Provider) ([]Item, error) {
	supplier := strings.TrimSpace(c.Params("supplier"))
	items, err := p.Items(c.UserContext(), supplier)
	if err != nil {
		log.Error().Err(err).Str("supplier", supplier).Msg("list catalog items")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not read the catalog")
	}
	return items, nil
}

// GET /api/catalog/suppliers/:supplier/items?category=Véhicule
func ListItemsHandler(p Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := supplierItems(c, p)
		if err != nil {
			return err
		}
		if cat := c.Query("category"); cat != "" {
			items = InCategory(items, cat)
		}
		return c.JSON(items)
	}
}

// GET /api/catalog/suppliers/:supplier/categories
func ListCategoriesHandler(p Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := supplierItems(c, p)
		if err != nil {
			return err
		}
		return c.JSON(Categories(items))
	}
}

// GET /api/catalog/suppliers/:supplier/descriptions?category=Véhicule
func ListDescriptionsHandler(p Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat := c.Query("category")
		if cat == "" {
			return fiber.NewError(fiber.StatusBadRequest, "category is required")
		}
		items, err := supplierItems(c, p)
		if err != nil {
			return err
		}
		return c.JSON(Descriptions(items, cat))
	}
}

// POST /api/admin/catalog/import (multipart, field "file")
func ImportXLSXHandler(imp Importer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file upload failed: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not open the upload")
		}
		defer file.Close()

		res, err := ReadXLSX(file)
		if errors.Is(err, ErrEmptySheet) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read the workbook: "+err.Error())
		}

		n, err := imp.UpsertItems(c.UserContext(), res.Items)
		if err != nil {
			log.Error().Err(err).Msg("catalog import")
			return fiber.NewError(fiber.StatusInternalServerError, "could not save the catalog")
		}

		log.Info().Int("imported", n).Int("rejected", len(res.Errors)).Str("file", fileHeader.Filename).Msg("catalog imported")
		return c.JSON(fiber.Map{
			"imported": n,
			"errors":   res.Errors,
		})
	}
}

// GET /api/admin/catalog/export
func ExportXLSXHandler(load func(ctx context.Context) ([]Item, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := load(c.UserContext())
		if err != nil {
			log.Error().Err(err).Msg("catalog export")
			return fiber.NewError(fiber.StatusInternalServerError, "could not read the catalog")
		}
		var buf bytes.Buffer
		if err := WriteXLSX(&buf, items); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build the workbook")
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="catalogue.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
