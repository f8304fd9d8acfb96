package proposal

import (
	"context"
	"errors"
	"strings"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"
	"leasing-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// respond maps service errors to HTTP errors. Validation problems are
// answered with 422 and the field lists.
func respond(c *fiber.Ctx, err error, what string) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":          verr.Error(),
			"missing_fields": verr.Missing,
			"invalid_fields": verr.Invalid,
		})
	case errors.Is(err, repository.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	case errors.Is(err, ErrAlreadySubmitted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	log.Error().Err(err).Str("path", c.Path()).Msg(what)
	return fiber.NewError(fiber.StatusInternalServerError, "could not process the "+what)
}

func parsePayload(c *fiber.Ctx) (Payload, error) {
	var p Payload
	if err := c.BodyParser(&p); err != nil {
		return p, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return p, nil
}

// POST /api/proposals/preview
func PreviewHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePayload(c)
		if err != nil {
			return err
		}
		q, err := svc.Preview(c.UserContext(), p)
		if err != nil {
			return respond(c, err, "proposal")
		}
		return c.JSON(q)
	}
}

// POST /api/proposals/drafts
func SaveDraftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePayload(c)
		if err != nil {
			return err
		}
		r, err := svc.SaveDraft(c.UserContext(), p)
		if err != nil {
			return respond(c, err, "proposal")
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// POST /api/proposals/submit
func SubmitHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePayload(c)
		if err != nil {
			return err
		}
		r, err := svc.SendForValidation(c.UserContext(), p)
		if err != nil {
			return respond(c, err, "proposal")
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// GET /api/proposals?status=draft&client=diop
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := repository.ProposalFilter{
			Status: models.ProposalStatus(c.Query("status")),
			Client: strings.TrimSpace(c.Query("client")),
		}
		if f.Status != "" && f.Status != models.ProposalStatusDraft && f.Status != models.ProposalStatusSubmitted {
			return fiber.NewError(fiber.StatusBadRequest, "status must be draft or submitted")
		}
		list, err := svc.List(c.UserContext(), f)
		if err != nil {
			return respond(c, err, "proposal list")
		}
		return c.JSON(list)
	}
}

// GET /api/proposals/:id
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respond(c, err, "proposal")
		}
		return c.JSON(p)
	}
}

// GET /api/proposals/summary
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Summary(c.UserContext())
		if err != nil {
			return respond(c, err, "summary")
		}
		return c.JSON(s)
	}
}

// GET /api/proposals/eligible-suppliers?proposal_type=convention&convention_id=...
func EligibleSuppliersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		terms := Terms{
			ProposalType: pricing.ProposalType(c.Query("proposal_type")),
			ConventionID: c.Query("convention_id"),
			CampaignID:   c.Query("campaign_id"),
		}
		list, res, err := svc.EligibleSuppliers(c.UserContext(), terms)
		if err != nil {
			return respond(c, err, "supplier list")
		}
		return c.JSON(fiber.Map{
			"suppliers":  list,
			"resolution": res,
		})
	}
}

// GET /api/proposals/products
func ProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := make([]fiber.Map, 0)
		for _, p := range Products() {
			out = append(out, fiber.Map{"product": p, "code": ProductCode(p)})
		}
		return c.JSON(out)
	}
}

// providerMatcher looks descriptions up in the supplier's catalog on demand.
type providerMatcher struct {
	ctx context.Context
	p   catalog.Provider
}

func (m providerMatcher) Find(supplier, category, description string) (catalog.Item, bool) {
	items, err := m.p.Items(m.ctx, supplier)
	if err != nil {
		log.Warn().Err(err).Str("supplier", supplier).Msg("catalog lookup failed")
		return catalog.Item{}, false
	}
	return catalog.NewIndex(items).Find(supplier, category, description)
}

// LineItemRequest carries the current material list with one edit to apply.
type LineItemRequest struct {
	Items    []LineItem `json:"items"`
	Supplier string     `json:"supplier"`
	ParentID int        `json:"parent_id"`
	ID       int        `json:"id"`
	Field    Field      `json:"field"`
	Value    string     `json:"value"`
}

type LineItemResponse struct {
	Items   []LineItem `json:"items"`
	Totals  Totals     `json:"totals"`
	Item    *LineItem  `json:"item,omitempty"`
	Removed []int      `json:"removed,omitempty"`
}

func lineItemError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownItem), errors.Is(err, ErrParentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
}

// POST /api/proposals/items/:action   (action: equipment, component, update, remove)
func LineItemsHandler(p catalog.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LineItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		li, err := LineItemsFrom(req.Items)
		if err != nil {
			return lineItemError(err)
		}

		resp := LineItemResponse{}
		switch c.Params("action") {
		case "equipment":
			it := li.AddEquipment(strings.TrimSpace(req.Supplier))
			resp.Item = &it
		case "component":
			it, err := li.AddComponent(req.ParentID)
			if err != nil {
				return lineItemError(err)
			}
			resp.Item = &it
		case "update":
			it, err := li.Update(req.ID, req.Field, req.Value, providerMatcher{ctx: c.UserContext(), p: p})
			if err != nil {
				return lineItemError(err)
			}
			resp.Item = &it
		case "remove":
			removed, err := li.Remove(req.ID)
			if err != nil {
				return lineItemError(err)
			}
			resp.Removed = removed
		default:
			return fiber.NewError(fiber.StatusNotFound, "unknown line item action")
		}

		resp.Items = li.Items()
		resp.Totals = li.Totals()
		return c.JSON(resp)
	}
}
