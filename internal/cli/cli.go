// Package cli implements leasectl, which runs the pricing core offline
// against the demo data or the configured database.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"leasing-backend/internal/config"
	"leasing-backend/internal/database"
	"leasing-backend/internal/logger"
	"leasing-backend/internal/pricing"
	"leasing-backend/internal/repository"
	"leasing-backend/internal/simulator"

	"github.com/spf13/cobra"
)

var version = "dev"

const dateLayout = "2006-01-02"

type app struct {
	out    io.Writer
	fromDB bool
	now    func() time.Time
}

// NewRootCmd builds the command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, now: time.Now}

	root := &cobra.Command{
		Use:           "leasectl",
		Short:         "Leasing barème and amortization tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logger.SetGlobalLogger(logger.NewWithWriter(logger.Config{Level: level, Pretty: true}, os.Stderr))
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&a.fromDB, "db", false, "read barèmes from the configured database instead of the demo data")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(a.versionCmd(), a.scheduleCmd(), a.resolveCmd())
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "leasectl %s\n", version)
		},
	}
}

func (a *app) rates(ctx context.Context, at time.Time) (repository.RateStore, error) {
	if !a.fromDB {
		store := repository.NewMemoryStore()
		if err := repository.SeedDemo(ctx, store, at); err != nil {
			return nil, err
		}
		return store, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Init(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}

func (a *app) scheduleCmd() *cobra.Command {
	var (
		amount      float64
		periods     int
		rate        float64
		periodicity string
		asJSON      bool
		xlsxPath    string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the amortization schedule of a financed amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			per, err := pricing.ParsePeriodicity(periodicity)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rate") {
				store, err := a.rates(cmd.Context(), a.now())
				if err != nil {
					return err
				}
				std, err := store.StandardSchedule(cmd.Context())
				if err != nil {
					return err
				}
				rate = std.Rate
			}

			res, err := simulator.Simulate(simulator.Params{Amount: amount, Periods: periods, Rate: rate, Periodicity: per})
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := simulator.WriteXLSX(f, res); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "schedule written to %s\n", xlsxPath)
				return nil
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printSchedule(a.out, res)
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 50000000, "financed amount")
	cmd.Flags().IntVar(&periods, "periods", 36, "number of periods")
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual rate in percent (default: standard barème)")
	cmd.Flags().StringVar(&periodicity, "periodicity", "M", "M, T, S or A")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the schedule to an .xlsx file")
	return cmd
}

func printSchedule(w io.Writer, res simulator.Result) error {
	fmt.Fprintf(w, "amount %.2f  rate %.2f%%  %d %s periods\n\n", res.Amount, res.Rate, res.Periods, res.Periodicity)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "period\topening\tinterest\tprincipal\tpayment\tclosing\t")
	for _, r := range res.Rows {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n", r.Period, r.OpeningBalance, r.Interest, r.Principal, r.Payment, r.ClosingBalance)
	}
	fmt.Fprintf(tw, "total\t\t%.2f\t%.2f\t%.2f\t\t\n", res.Summary.TotalInterest, res.Summary.TotalPrincipal, res.Summary.TotalPaid)
	return tw.Flush()
}

func (a *app) resolveCmd() *cobra.Command {
	var (
		proposalType string
		conventionID string
		campaignID   string
		date         string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the barème a proposal would get",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			at := a.now()
			if date != "" {
				d, err := time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				at = d
			}
			pt, err := pricing.ParseProposalType(proposalType)
			if err != nil {
				return err
			}

			store, err := a.rates(ctx, at)
			if err != nil {
				return err
			}
			sel := pricing.Selection{Type: pt}
			if conventionID != "" {
				conv, err := store.GetConvention(ctx, conventionID)
				if err != nil {
					return fmt.Errorf("convention %s: %w", conventionID, err)
				}
				sel.Convention = &conv
			}
			if campaignID != "" {
				camp, err := store.GetCampaign(ctx, campaignID)
				if err != nil {
					return fmt.Errorf("campaign %s: %w", campaignID, err)
				}
				sel.Campaign = &camp
			}
			standard, err := store.StandardSchedule(ctx)
			if err != nil {
				return err
			}

			res := pricing.Resolve(sel, standard, at)
			fmt.Fprintf(a.out, "source:         %s %s\n", res.Source, res.SourceID)
			fmt.Fprintf(a.out, "rate:           %.2f%%\n", res.Schedule.Rate)
			fmt.Fprintf(a.out, "margin:         %.2f%%\n", res.Schedule.Margin)
			fmt.Fprintf(a.out, "residual value: %.2f%%\n", res.Schedule.ResidualValue)
			fmt.Fprintf(a.out, "client rate:    %.2f%%\n", res.Schedule.ClientRate())
			if res.CampaignRejected {
				fmt.Fprintln(a.out, "note:           campaign not valid on that date")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&proposalType, "type", "standard", "standard, convention or campaign")
	cmd.Flags().StringVar(&conventionID, "convention", "", "convention id")
	cmd.Flags().StringVar(&campaignID, "campaign", "", "campaign id")
	cmd.Flags().StringVar(&date, "date", "", "resolution date, YYYY-MM-DD (default: today)")
	return cmd
}
