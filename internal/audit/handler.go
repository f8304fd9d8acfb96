package audit

import (
	"errors"
	"strconv"
	"strings"

	"leasing-backend/internal/models"
	"leasing-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ActorHeader names the operator on audited writes. There is no login; the
// front end sends the operator name.
const ActorHeader = "X-Actor"

func Actor(c *fiber.Ctx) string {
	if a := strings.TrimSpace(c.Get(ActorHeader)); a != "" {
		return a
	}
	return "admin"
}

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	Actor       string             `json:"actor"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    string             `json:"undone_by,omitempty"`
	UndoneAt    *string            `json:"undone_at"`
}

// GET /api/audit-logs?entity_type=convention&entity_id=conv-1&actor=awa
func ListAuditLogsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logs, err := svc.List(c.UserContext(), Filter{
			EntityType: c.Query("entity_type"),
			EntityID:   c.Query("entity_id"),
			Actor:      c.Query("actor"),
		})
		if err != nil {
			log.Error().Err(err).Msg("list audit logs")
			return fiber.NewError(fiber.StatusInternalServerError, "could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			var undoneAt *string
			if l.UndoneAt != nil {
				formatted := l.UndoneAt.Format("2006-01-02 15:04:05")
				undoneAt = &formatted
			}
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				Actor:       l.Actor,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				IsUndone:    l.IsUndone,
				UndoneBy:    l.UndoneBy,
				UndoneAt:    undoneAt,
			})
		}
		return c.JSON(resp)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid log id")
		}

		err = svc.Undo(c.UserContext(), uint(id), Actor(c))
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "audit log not found")
		case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrNotUndoable):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Uint64("log_id", id).Msg("undo audit log")
			return fiber.NewError(fiber.StatusInternalServerError, "could not undo the change")
		}

		return c.JSON(fiber.Map{
			"message": "change undone",
		})
	}
}
