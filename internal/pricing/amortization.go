package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrNegativePrincipal = errors.New("principal must be non-negative")
	ErrNegativeRate      = errors.New("annual rate must be non-negative")
	ErrTooManyPeriods    = fmt.Errorf("a schedule has at most %d periods", MaxPeriods)
)

// MaxPeriods caps a schedule at 50 years of monthly rents.
const MaxPeriods = 600

// Periodicity is the number of rent periods per year.
type Periodicity int

const (
	Monthly    Periodicity = 12
	Quarterly  Periodicity = 4
	SemiAnnual Periodicity = 2
	Annual     Periodicity = 1
)

// ParsePeriodicity accepts English names, French names and the one-letter
// form codes M, T, S and A.
func ParsePeriodicity(s string) (Periodicity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m", "monthly", "mensuelle":
		return Monthly, nil
	case "t", "quarterly", "trimestrielle":
		return Quarterly, nil
	case "s", "semi-annual", "semestrielle":
		return SemiAnnual, nil
	case "a", "annual", "annuelle":
		return Annual, nil
	}
	return 0, fmt.Errorf("unknown periodicity %q", s)
}

func (p Periodicity) String() string {
	switch p {
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case SemiAnnual:
		return "semi-annual"
	case Annual:
		return "annual"
	}
	return fmt.Sprintf("periodicity(%d)", int(p))
}

// Row is one period of an amortization schedule. Values are unrounded.
type Row struct {
	Period         int     `json:"period"`
	OpeningBalance float64 `json:"opening_balance"`
	Interest       float64 `json:"interest"`
	Principal      float64 `json:"principal"`
	Payment        float64 `json:"payment"`
	ClosingBalance float64 `json:"closing_balance"`
}

// Amortize builds a constant-payment schedule on a monthly periodic rate
// (annualRatePercent / 100 / 12).
func Amortize(principal float64, periods int, annualRatePercent float64) ([]Row, error) {
	return AmortizeWithPeriodicity(principal, periods, annualRatePercent, Monthly)
}

// AmortizeWithPeriodicity divides the annual rate by the number of periods per year.
// periods <= 0 yields an empty schedule; more than MaxPeriods is ErrTooManyPeriods.
func AmortizeWithPeriodicity(principal float64, periods int, annualRatePercent float64, p Periodicity) ([]Row, error) {
	if principal < 0 || math.IsNaN(principal) {
		return nil, ErrNegativePrincipal
	}
	if annualRatePercent < 0 || math.IsNaN(annualRatePercent) {
		return nil, ErrNegativeRate
	}
	if periods <= 0 {
		return []Row{}, nil
	}
	if periods > MaxPeriods {
		return nil, ErrTooManyPeriods
	}
	if p <= 0 {
		p = Monthly
	}

	r := annualRatePercent / 100 / float64(p)
	payment := Payment(principal, periods, r)

	rows := make([]Row, periods)
	balance := principal
	for i := 0; i < periods; i++ {
		interest := balance * r
		princ := payment - interest
		closing := balance - princ
		if i == periods-1 {
			closing = 0
		}
		rows[i] = Row{
			Period:         i + 1,
			OpeningBalance: balance,
			Interest:       interest,
			Principal:      princ,
			Payment:        payment,
			ClosingBalance: closing,
		}
		balance = closing
	}
	return rows, nil
}

// Payment is the constant installment for n periods at periodic rate r.
func Payment(principal float64, n int, r float64) float64 {
	if n <= 0 {
		return 0
	}
	if r == 0 {
		return principal / float64(n)
	}
	return principal * r / (1 - math.Pow(1+r, -float64(n)))
}

// Summary aggregates a schedule.
type Summary struct {
	Periods        int     `json:"periods"`
	Payment        float64 `json:"payment"`
	TotalPaid      float64 `json:"total_paid"`
	TotalInterest  float64 `json:"total_interest"`
	TotalPrincipal float64 `json:"total_principal"`
}

func Summarize(rows []Row) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	payments := make([]float64, len(rows))
	interest := make([]float64, len(rows))
	principal := make([]float64, len(rows))
	for i, r := range rows {
		payments[i] = r.Payment
		interest[i] = r.Interest
		principal[i] = r.Principal
	}
	return Summary{
		Periods:        len(rows),
		Payment:        rows[0].Payment,
		TotalPaid:      floats.Sum(payments),
		TotalInterest:  floats.Sum(interest),
		TotalPrincipal: floats.Sum(principal),
	}
}

// RoundTo2 rounds to currency minor units for presentation.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
