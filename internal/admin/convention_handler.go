package admin

import (
	"strings"

	"leasing-backend/internal/audit"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ConventionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Suppliers   []string `json:"suppliers"`
	ScheduleBody
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"` // optional
	Active    *bool  `json:"active"`
}

func (r ConventionRequest) toConvention(id string) (pricing.Convention, error) {
	conv := pricing.Convention{
		ID:          id,
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Suppliers:   cleanSuppliers(r.Suppliers),
		Active:      true,
	}
	if conv.Name == "" {
		return conv, fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if len(conv.Suppliers) == 0 {
		return conv, fiber.NewError(fiber.StatusBadRequest, "a convention needs at least one supplier")
	}
	sch, err := r.schedule()
	if err != nil {
		return conv, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	conv.Schedule = sch

	if conv.StartDate, err = parseDay(r.StartDate); err != nil {
		return conv, fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(r.EndDate) != "" {
		end, err := parseEndDay(r.EndDate)
		if err != nil {
			return conv, fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		if end.Before(conv.StartDate) {
			return conv, fiber.NewError(fiber.StatusBadRequest, "end_date is before start_date")
		}
		conv.EndDate = &end
	}
	if r.Active != nil {
		conv.Active = *r.Active
	}
	return conv, nil
}

type ConventionResponse struct {
	pricing.Convention
	UsableNow bool `json:"usable_now"`
}

// POST /api/admin/conventions
func CreateConventionHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ConventionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		conv, err := body.toConvention(uuid.NewString())
		if err != nil {
			return err
		}
		if err := d.Rates.SaveConvention(c.UserContext(), conv); err != nil {
			return storeError(err, "convention")
		}

		d.record(c, audit.LogOptions{
			EntityType:  audit.EntityConvention,
			EntityID:    conv.ID,
			Action:      models.AuditActionCreate,
			Description: "convention created: " + conv.Name,
			After:       conv,
		})
		return c.Status(fiber.StatusCreated).JSON(ConventionResponse{conv, conv.UsableAt(d.now())})
	}
}

// GET /api/conventions?active=true
func ListConventionsHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := d.Rates.ListConventions(c.UserContext(), c.QueryBool("active", false))
		if err != nil {
			return storeError(err, "conventions")
		}
		now := d.now()
		res := make([]ConventionResponse, 0, len(list))
		for _, conv := range list {
			res = append(res, ConventionResponse{conv, conv.UsableAt(now)})
		}
		return c.JSON(res)
	}
}

func GetConventionHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conv, err := d.Rates.GetConvention(c.UserContext(), c.Params("id"))
		if err != nil {
			return storeError(err, "convention")
		}
		return c.JSON(ConventionResponse{conv, conv.UsableAt(d.now())})
	}
}

// PUT /api/admin/conventions/:id replaces the convention.
func UpdateConventionHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		prev, err := d.Rates.GetConvention(ctx, c.Params("id"))
		if err != nil {
			return storeError(err, "convention")
		}

		var body ConventionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		conv, err := body.toConvention(prev.ID)
		if err != nil {
			return err
		}
		if err := d.Rates.SaveConvention(ctx, conv); err != nil {
			return storeError(err, "convention")
		}

		d.record(c, audit.LogOptions{
			EntityType:  audit.EntityConvention,
			EntityID:    conv.ID,
			Action:      models.AuditActionUpdate,
			Description: "convention updated: " + conv.Name,
			Before:      prev,
			After:       conv,
		})
		return c.JSON(ConventionResponse{conv, conv.UsableAt(d.now())})
	}
}

func DeleteConventionHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		prev, err := d.Rates.GetConvention(ctx, c.Params("id"))
		if err != nil {
			return storeError(err, "convention")
		}
		if err := d.Rates.DeleteConvention(ctx, prev.ID); err != nil {
			return storeError(err, "convention")
		}

		d.record(c, audit.LogOptions{
			EntityType:  audit.EntityConvention,
			EntityID:    prev.ID,
			Action:      models.AuditActionDelete,
			Description: "convention deleted: " + prev.Name,
			Before:      prev,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
