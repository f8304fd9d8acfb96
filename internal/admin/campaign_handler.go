package admin

import (
	"strings"

	"leasing-backend/internal/audit"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CampaignRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"` // supplier / bank
	Suppliers   []string `json:"suppliers"`
	ScheduleBody
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Active    *bool  `json:"active"`
	Priority  *bool  `json:"priority"`
}

func (r CampaignRequest) toCampaign(id string) (pricing.Campaign, error) {
	camp := pricing.Campaign{
		ID:          id,
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Kind:        pricing.CampaignKind(strings.ToLower(strings.TrimSpace(r.Kind))),
		Active:      true,
	}
	if camp.Name == "" {
		return camp, fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if !camp.Kind.Valid() {
		return camp, fiber.NewError(fiber.StatusBadRequest, "kind must be supplier or bank")
	}
	if camp.Kind == pricing.CampaignKindSupplier {
		camp.Suppliers = cleanSuppliers(r.Suppliers)
		if len(camp.Suppliers) == 0 {
			return camp, fiber.NewError(fiber.StatusBadRequest, "a supplier campaign needs at least one supplier")
		}
	}
	sch, err := r.schedule()
	if err != nil {
		return camp, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	camp.Schedule = sch

	if camp.StartDate, err = parseDay(r.StartDate); err != nil {
		return camp, fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	if camp.EndDate, err = parseEndDay(r.EndDate); err != nil {
		return camp, fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
	}
	if camp.EndDate.Before(camp.StartDate) {
		return camp, fiber.NewError(fiber.StatusBadRequest, "end_date is before start_date")
	}
	if r.Active != nil {
		camp.Active = *r.Active
	}
	if r.Priority != nil {
		camp.Priority = *r.Priority
	}
	return camp, nil
}

type CampaignResponse struct {
	pricing.Campaign
	ValidNow bool `json:"valid_now"`
}

// POST /api/admin/campaigns
func CreateCampaignHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CampaignRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		camp, err := body.toCampaign(uuid.NewString())
		if err != nil {
			return err
		}
		if err := d.Rates.SaveCampaign(c.UserContext(), camp); err != nil {
			return storeError(err, "campaign")
		}

		d.record(c, audit.LogOptions{
			EntityType:  audit.EntityCampaign,
			EntityID:    camp.ID,
			Action:      models.AuditActionCreate,
			Description: "campaign created: " + camp.Name,
			After:       camp,
		})
		return c.Status(fiber.StatusCreated).JSON(CampaignResponse{camp, camp.ValidAt(d.now())})
	}
}

// GET /api/campaigns?active=true
func ListCampaignsHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := d.Rates.ListCampaigns(c.UserContext(), c.QueryBool("active", false))
		if err != nil {
			return storeError(err, "campaigns")
		}
		now := d.now()
		res := make([]CampaignResponse, 0, len(list))
		for _, camp := range list {
			res = append(res, CampaignResponse{camp, camp.ValidAt(now)})
		}
		return c.JSON(res)
	}
}

func GetCampaignHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		camp, err := d.Rates.GetCampaign(c.UserContext(), c.Params("id"))
		if err != nil {
			return storeError(err, "campaign")
		}
		return c.JSON(CampaignResponse{camp, camp.ValidAt(d.now())})
	}
}

func UpdateCampaignHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		prev, err := d.Rates.GetCampaign(ctx, c.Params("id"))
		if err != nil {
			return storeError(err, "campaign")
		}

		var body CampaignRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		camp, err := body.toCampaign(prev.ID)
		if err != nil {
			return err
		}
		if err := d.Rates.SaveCampaign(ctx, camp); err != nil {
			return storeError(err, "campaign")
		}

		d.record(c, audit.LogOptions{
			EntityType:  audit.EntityCampaign,
			EntityID:    camp.ID,
			Action:      models.AuditActionUpdate,
			Description: "campaign updated: " + camp.Name,
			Before:      prev,
			After:       camp,
		})
		return c.JSON(CampaignResponse{camp, camp.ValidAt(d.now())})
	}
}

func DeleteCampaignHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		prev, err := d.Rates.GetCampaign(ctx, c.Params("id"))
		if err != nil {
			return storeError(err, "campaign")
		}
		if err := d.Rates.DeleteCampaign(ctx, prev.ID); err != nil {
			return storeError(err, "campaign")
		}

		d.record(c, audit.LogOptions{
			EntityType:  audit.EntityCampaign,
			EntityID:    prev.ID,
			Action:      models.AuditActionDelete,
			Description: "campaign deleted: " + prev.Name,
			Before:      prev,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/campaigns/applicable?supplier=sonacos
func ApplicableCampaignsHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := d.Rates.ListCampaigns(c.UserContext(), true)
		if err != nil {
			return storeError(err, "campaigns")
		}
		now := d.now()
		applicable := pricing.ApplicableCampaigns(list, strings.TrimSpace(c.Query("supplier")), now)
		res := make([]CampaignResponse, 0, len(applicable))
		for _, camp := range applicable {
			res = append(res, CampaignResponse{camp, true})
		}
		return c.JSON(res)
	}
}
