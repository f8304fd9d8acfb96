package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"leasing-backend/internal/audit"
	"leasing-backend/internal/pricing"
	"leasing-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// Recorder stores audit entries for administration writes.
type Recorder interface {
	Write(ctx context.Context, opts audit.LogOptions) error
}

type Deps struct {
	Rates repository.RateAdmin
	Audit Recorder
	Now   func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) record(c *fiber.Ctx, opts audit.LogOptions) {
	if d.Audit == nil {
		return
	}
	opts.Actor = audit.Actor(c)
	if err := d.Audit.Write(c.UserContext(), opts); err != nil {
		log.Warn().Err(err).Str("entity_type", opts.EntityType).Str("entity_id", opts.EntityID).Msg("audit log not written")
	}
}

type ScheduleBody struct {
	Rate          *float64 `json:"rate"`
	Margin        *float64 `json:"margin"`
	ResidualValue *float64 `json:"residual_value"`
}

func (b ScheduleBody) schedule() (pricing.RateSchedule, error) {
	if b.Rate == nil || b.Margin == nil || b.ResidualValue == nil {
		return pricing.RateSchedule{}, errors.New("rate, margin and residual_value are required")
	}
	s := pricing.RateSchedule{Rate: *b.Rate, Margin: *b.Margin, ResidualValue: *b.ResidualValue}
	if err := s.Validate(); err != nil {
		return pricing.RateSchedule{}, err
	}
	return s, nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// parseEndDay makes the end date inclusive: the record stays valid until the
// last second of that day.
func parseEndDay(s string) (time.Time, error) {
	d, err := parseDay(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Second), nil
}

func cleanSuppliers(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func storeError(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	}
	log.Error().Err(err).Msg(what)
	return fiber.NewError(fiber.StatusInternalServerError, what+" could not be processed")
}
