package admin

import (
	"leasing-backend/internal/audit"
	"leasing-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/bareme/standard
func GetStandardScheduleHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := d.Rates.StandardSchedule(c.UserContext())
		if err != nil {
			return storeError(err, "standard barème")
		}
		return c.JSON(s)
	}
}

// PUT /api/admin/bareme/standard
func UpdateStandardScheduleHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ScheduleBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		next, err := body.schedule()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx := c.UserContext()
		prev, err := d.Rates.StandardSchedule(ctx)
		if err != nil {
			return storeError(err, "standard barème")
		}
		if err := d.Rates.SetStandardSchedule(ctx, next); err != nil {
			return storeError(err, "standard barème")
		}

		d.record(c, audit.LogOptions{
			EntityType:  audit.EntityStandardSchedule,
			EntityID:    "standard",
			Action:      models.AuditActionUpdate,
			Description: "standard barème updated",
			Before:      prev,
			After:       next,
		})
		return c.JSON(next)
	}
}
