// Package commands implements the finsightctl command tree.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"finsight/internal/config"
	"finsight/internal/core"
	"finsight/internal/log"
)

type options struct {
	logLevel string
	cfg      *config.Config
	logger   *log.Logger
}

// NewRootCmd builds the finsightctl command tree. Defaults come from the
// same environment variables as the server; flags override them. Logs go to
// stderr so stdout stays machine-readable.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "finsightctl",
		Short:        "Offline tools for FinSight forecasting and categorization",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg = config.Load()
			lvl, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = log.New(log.Config{Level: lvl, Component: log.ComponentApp, Output: cmd.ErrOrStderr()})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newForecastCmd(opts),
		newSummaryCmd(opts),
		newTaxCmd(opts),
		newClassifyCmd(opts),
		newTrainCmd(opts),
		newSheetsAuthCmd(),
	)
	return root
}

// readHistory loads monthly records from path, or stdin when path is "-".
// Both a bare JSON array and an object with a "history" array are accepted.
func readHistory(cmd *cobra.Command, path string) ([]core.MonthlyRecord, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			History []core.MonthlyRecord `json:"history"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		return wrapped.History, nil
	}

	var history []core.MonthlyRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
