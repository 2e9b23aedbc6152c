package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"finsight/internal/cli"
	"finsight/internal/core"
	"finsight/internal/tax"
)

func newTaxCmd(opts *options) *cobra.Command {
	var (
		file       string
		year       int
		rate       float64
		startMonth int
	)

	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Estimate the yearly tax owed on a monthly history",
		Example: `  finsightctl tax --file history.json --year 2025
  finsightctl tax --file history.json --rate 27.5 --start-month 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := readHistory(cmd, file)
			if err != nil {
				return err
			}
			settings := cli.TaxSettings(opts.cfg)
			if cmd.Flags().Changed("rate") {
				settings.Rate = rate
			}
			if cmd.Flags().Changed("start-month") {
				settings.QuarterlyStartMonth = startMonth
			}
			if !cmd.Flags().Changed("year") {
				if year, err = latestYear(history); err != nil {
					return err
				}
			}

			totals := yearTotals(history, year)
			estimate, err := tax.Compute(year, totals.Income, totals.Expense, settings)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), estimate)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "history JSON file, or - for stdin")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "calendar year to estimate (default: latest year in the history)")
	cmd.Flags().Float64Var(&rate, "rate", tax.DefaultRate, "tax rate in percent")
	cmd.Flags().IntVar(&startMonth, "start-month", tax.DefaultStartMonth, "month the first quarter starts in")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func latestYear(history []core.MonthlyRecord) (int, error) {
	year := 0
	for _, r := range history {
		if m, err := core.ParseMonth(r.Month); err == nil && m.Year > year {
			year = m.Year
		}
	}
	if year == 0 {
		return 0, errors.New("history has no valid month; pass --year")
	}
	return year, nil
}

func yearTotals(history []core.MonthlyRecord, year int) core.Totals {
	var inYear []core.MonthlyRecord
	for _, r := range history {
		if m, err := core.ParseMonth(r.Month); err == nil && m.Year == year {
			inYear = append(inYear, r)
		}
	}
	return core.SumRecords(inYear)
}
