package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/ingest"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/monitoring"
)

// newRootCmd builds a fresh command tree so tests never share flag state.
func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "crisisctl",
		Short: "Score crisis risk from World Development Indicators exports",
		Long: `crisisctl runs the crisis risk engine over a CSV export: the latest
record of every entity is scored against the economic or food rule table,
indicator series are extrapolated, and shocks can be applied to one field.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// logs go to stderr so stdout stays parseable
			logger := monitoring.NewLogger(cmd.ErrOrStderr(), logLevel)
			slog.SetDefault(logger.Logger)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newScoreCmd(), newForecastCmd(), newStressCmd())
	return root
}

// loadRecords parses and validates a CSV file.
func loadRecords(path string) ([]indicators.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %q", path))
		}
		return nil, apperrors.WrapError(err, "failed to open %s", path)
	}
	defer apperrors.SafeClose(f, path)

	records, err := ingest.ParseCSV(f)
	if err != nil {
		return nil, err
	}
	if err := indicators.ValidateAll(records); err != nil {
		return nil, err
	}
	slog.Debug("Loaded records", "file", path, "records", len(records))
	return records, nil
}
