package simulator

import (
	"context"
	"fmt"
	"io"

	"leasing-backend/internal/pricing"

	"github.com/xuri/excelize/v2"
)

type Params struct {
	Amount      float64             `json:"amount"`
	Periods     int                 `json:"periods"`
	Rate        float64             `json:"rate"`
	Periodicity pricing.Periodicity `json:"-"`
}

type Result struct {
	Params
	Periodicity string          `json:"periodicity"`
	Summary     pricing.Summary `json:"summary"`
	Rows        []pricing.Row   `json:"rows"`
}

// Simulate runs the amortization and rounds every amount to two decimals.
func Simulate(p Params) (Result, error) {
	rows, err := pricing.AmortizeWithPeriodicity(p.Amount, p.Periods, p.Rate, p.Periodicity)
	if err != nil {
		return Result{}, err
	}
	sum := pricing.Summarize(rows)
	for i := range rows {
		r := &rows[i]
		r.OpeningBalance = pricing.RoundTo2(r.OpeningBalance)
		r.Interest = pricing.RoundTo2(r.Interest)
		r.Principal = pricing.RoundTo2(r.Principal)
		r.Payment = pricing.RoundTo2(r.Payment)
		r.ClosingBalance = pricing.RoundTo2(r.ClosingBalance)
	}
	sum.Payment = pricing.RoundTo2(sum.Payment)
	sum.TotalPaid = pricing.RoundTo2(sum.TotalPaid)
	sum.TotalInterest = pricing.RoundTo2(sum.TotalInterest)
	sum.TotalPrincipal = pricing.RoundTo2(sum.TotalPrincipal)

	per := p.Periodicity
	if per <= 0 {
		per = pricing.Monthly
	}
	return Result{Params: p, Periodicity: per.String(), Summary: sum, Rows: rows}, nil
}

// RateSource supplies the rate used when a simulation does not set one.
type RateSource interface {
	StandardSchedule(ctx context.Context) (pricing.RateSchedule, error)
}

const sheetName = "Amortissement"

// WriteXLSX writes the schedule with a totals line under the last period.
func WriteXLSX(w io.Writer, res Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	intro := [][]any{
		{"Montant financé", res.Amount},
		{"Taux annuel (%)", res.Rate},
		{"Nombre de périodes", res.Periods},
		{"Périodicité", res.Periodicity},
	}
	for i, row := range intro {
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	const headerRow = 6
	header := []any{"Période", "Capital début", "Intérêts", "Amortissement", "Loyer", "Capital fin"}
	if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return err
	}
	for i, r := range res.Rows {
		row := []any{r.Period, r.OpeningBalance, r.Interest, r.Principal, r.Payment, r.ClosingBalance}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", headerRow+1+i), &row); err != nil {
			return err
		}
	}

	last := headerRow + len(res.Rows) + 1
	totals := []any{"Total", "", res.Summary.TotalInterest, res.Summary.TotalPrincipal, res.Summary.TotalPaid}
	if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", last), &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("B%d", headerRow+1), fmt.Sprintf("F%d", last), moneyStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", "F", 18); err != nil {
		return err
	}
	return f.Write(w)
}
