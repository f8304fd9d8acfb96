package simulator

import (
	"bytes"
	"errors"
	"strconv"

	"leasing-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func parseParams(c *fiber.Ctx, rates RateSource, defaultPeriods int) (Params, error) {
	p := Params{Periods: defaultPeriods}

	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		return p, fiber.NewError(fiber.StatusBadRequest, "amount is required")
	}
	p.Amount = amount

	if v := c.Query("periods"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fiber.NewError(fiber.StatusBadRequest, "periods must be a positive integer")
		}
		p.Periods = n
	}

	if v := c.Query("rate"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fiber.NewError(fiber.StatusBadRequest, "rate must be a number")
		}
		p.Rate = r
	} else {
		std, err := rates.StandardSchedule(c.UserContext())
		if err != nil {
			log.Error().Err(err).Msg("load standard barème")
			return p, fiber.NewError(fiber.StatusInternalServerError, "could not load the standard barème")
		}
		p.Rate = std.Rate
	}

	per, err := pricing.ParsePeriodicity(c.Query("periodicity"))
	if err != nil {
		return p, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	p.Periodicity = per
	return p, nil
}

func simulate(c *fiber.Ctx, rates RateSource, defaultPeriods int) (Result, error) {
	p, err := parseParams(c, rates, defaultPeriods)
	if err != nil {
		return Result{}, err
	}
	res, err := Simulate(p)
	if errors.Is(err, pricing.ErrNegativePrincipal) || errors.Is(err, pricing.ErrNegativeRate) ||
		errors.Is(err, pricing.ErrTooManyPeriods) {
		return Result{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return res, err
}

// GET /api/simulator/amortization?amount=50000000&periods=36&rate=7.5&periodicity=M
// rate defaults to the standard barème, periods to the configured term.
func AmortizationHandler(rates RateSource, defaultPeriods int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := simulate(c, rates, defaultPeriods)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/simulator/amortization/export (same query)
func ExportXLSXHandler(rates RateSource, defaultPeriods int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := simulate(c, rates, defaultPeriods)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := WriteXLSX(&buf, res); err != nil {
			log.Error().Err(err).Msg("amortization export")
			return fiber.NewError(fiber.StatusInternalServerError, "could not build the workbook")
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="amortissement.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
