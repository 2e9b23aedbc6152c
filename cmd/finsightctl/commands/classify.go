package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"finsight/internal/classifier"
)

func newClassifyCmd(opts *options) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "classify TEXT...",
		Short: "Predict the expense category of a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return errors.New("description is empty")
			}
			if !cmd.Flags().Changed("model") {
				modelPath = opts.cfg.ClassifierModelPath
			}

			p, err := classifier.NewStore(modelPath, opts.logger).Classify(text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "model artifact path; trained and written on first use when missing")
	return cmd
}
