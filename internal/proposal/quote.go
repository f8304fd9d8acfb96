package proposal

import (
	"errors"

	"leasing-backend/internal/money"
	"leasing-backend/internal/pricing"

	"github.com/shopspring/decimal"
)

// Quote is the priced view of a proposal: effective barème, totals and the
// amortization of the financed amount.
type Quote struct {
	Resolution     pricing.Resolution   `json:"resolution"`
	Mode           PricingMode          `json:"bareme_mode"`
	Bareme         pricing.RateSchedule `json:"bareme"`
	ClientRate     float64              `json:"client_rate"`
	Periodicity    string               `json:"periodicity"`
	Periods        int                  `json:"periods"`
	Totals         Totals               `json:"totals"`
	FinancedAmount decimal.Decimal      `json:"financed_amount"`
	ResidualAmount decimal.Decimal      `json:"residual_amount"`
	FeesTotal      decimal.Decimal      `json:"fees_total"`
	Payment        float64              `json:"payment"`
	Summary        pricing.Summary      `json:"summary"`
	Rows           []pricing.Row        `json:"rows,omitempty"`
}

// BuildQuote prices p with the resolved barème. The financed amount is the
// VAT-inclusive total of the line items; periods <= 0 fall back to
// defaultPeriods.
func BuildQuote(p Payload, res pricing.Resolution, defaultPeriods int) (Quote, error) {
	verr := &ValidationError{}

	li, err := LineItemsFrom(p.Items)
	if err != nil {
		verr.invalid("items", err.Error())
		return Quote{}, verr
	}

	per, err := pricing.ParsePeriodicity(p.Terms.Periodicity)
	if err != nil {
		verr.invalid("terms.periodicity", err.Error())
	}

	bareme := res.Schedule
	mode := p.Terms.Mode
	if mode == "" {
		mode = ModeStandard
	}
	if mode == ModeDerogatoire {
		if p.Terms.Override == nil {
			verr.missing("terms.override")
		} else if err := p.Terms.Override.Validate(); err != nil {
			verr.invalid("terms.override", err.Error())
		} else {
			bareme = *p.Terms.Override
		}
	}
	if !verr.empty() {
		return Quote{}, verr
	}

	periods := p.Terms.Periods
	if periods <= 0 {
		periods = defaultPeriods
	}

	totals := li.Totals()
	principal, _ := totals.TotalInclTax.Float64()
	rows, err := pricing.AmortizeWithPeriodicity(principal, periods, bareme.Rate, per)
	if errors.Is(err, pricing.ErrTooManyPeriods) {
		verr.invalid("terms.periods", err.Error())
		return Quote{}, verr
	}
	if err != nil {
		verr.invalid("items", err.Error())
		return Quote{}, verr
	}
	summary := pricing.Summarize(rows)

	return Quote{
		Resolution:     res,
		Mode:           mode,
		Bareme:         bareme,
		ClientRate:     bareme.ClientRate(),
		Periodicity:    per.String(),
		Periods:        periods,
		Totals:         totals,
		FinancedAmount: totals.TotalInclTax,
		ResidualAmount: money.Percent(totals.TotalInclTax, decimal.NewFromFloat(bareme.ResidualValue)),
		FeesTotal:      p.Fees.Total(),
		Payment:        pricing.RoundTo2(summary.Payment),
		Summary:        summary,
		Rows:           rows,
	}, nil
}
