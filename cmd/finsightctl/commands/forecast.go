package commands

import (
	"github.com/spf13/cobra"

	"finsight/internal/cli"
)

func newForecastCmd(opts *options) *cobra.Command {
	var (
		file    string
		periods int
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project a monthly history forward",
		Example: `  finsightctl forecast --file history.json --periods 6
  cat history.json | finsightctl forecast --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := readHistory(cmd, file)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("periods") {
				periods = opts.cfg.ForecastDefaultPeriods
			}

			result, err := cli.NewCoordinator(opts.cfg, opts.logger).Forecast(cmd.Context(), history, periods)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "history JSON file, or - for stdin")
	cmd.Flags().IntVarP(&periods, "periods", "p", 3, "months to forecast")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
