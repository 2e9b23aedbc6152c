package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"finsight/internal/classifier"
)

func newTrainCmd(opts *options) *cobra.Command {
	var (
		out        string
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the categorization model on the bundled set and write the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("out") {
				out = opts.cfg.ClassifierModelPath
			}
			trainOpts := classifier.DefaultTrainOptions()
			if iterations > 0 {
				trainOpts.Iterations = iterations
			}

			m, err := classifier.Train(classifier.TrainingSet, trainOpts)
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}
			if err := classifier.Save(m, out); err != nil {
				return fmt.Errorf("save model: %w", err)
			}
			opts.logger.Info("Model written", "path", out, "classes", len(m.Classes))

			w := cmd.OutOrStdout()
			reports, accuracy := classifier.Evaluate(m, classifier.TrainingSet)
			if err := classifier.WriteReport(w, reports, accuracy); err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "model written to %s\n", out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "artifact path (default CLASSIFIER_MODEL_PATH)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "gradient descent iterations (0 keeps the default)")
	return cmd
}
