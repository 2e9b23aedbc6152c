package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"finsight/internal/core"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the plain-text summary of a monthly history",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := readHistory(cmd, file)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), core.FormatSummary(history))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "history JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
