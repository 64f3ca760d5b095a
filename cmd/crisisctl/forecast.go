package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/forecast"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/ingest"
)

const maxHorizon = 50

type forecastOptions struct {
	file      string
	entity    string
	indicator string
	horizon   int
	json      bool
}

func newForecastCmd() *cobra.Command {
	var opts forecastOptions

	cmd := &cobra.Command{
		Use:     "forecast",
		Short:   "Extrapolate one indicator of one entity with a linear trend",
		Example: `  crisisctl forecast --file data/wdi.csv --entity Kenya --indicator inflation --horizon 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "indicator CSV file")
	f.StringVarP(&opts.entity, "entity", "e", "", "entity to forecast")
	f.StringVarP(&opts.indicator, "indicator", "i", "", "indicator key or long name, e.g. gdp_growth")
	f.IntVar(&opts.horizon, "horizon", 5, fmt.Sprintf("periods to extrapolate (0-%d)", maxHorizon))
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("indicator")

	return cmd
}

func runForecast(cmd *cobra.Command, opts forecastOptions) error {
	if opts.horizon < 0 || opts.horizon > maxHorizon {
		return apperrors.NewValidationErrorWithMap("invalid flags",
			map[string]string{"horizon": fmt.Sprintf("must be between 0 and %d", maxHorizon)})
	}
	field, ok := indicators.ParseField(opts.indicator)
	if !ok {
		return apperrors.NewValidationErrorWithMap("invalid flags",
			map[string]string{"indicator": "unknown indicator " + strconv.Quote(opts.indicator)})
	}

	records, err := loadRecords(opts.file)
	if err != nil {
		return err
	}
	history, err := ingest.History(records, opts.entity, field)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	points, err := forecast.ForecastChecked(history, opts.horizon)
	insufficient := err != nil
	if insufficient {
		points = []forecast.ForecastPoint{}
	}

	if opts.json {
		body := map[string]any{
			"entity":               opts.entity,
			"indicator":            field,
			"horizon":              opts.horizon,
			"points":               points,
			"insufficient_history": insufficient,
		}
		if !insufficient {
			body["trend"] = forecast.Fit(history)
			body["growth_rate"] = forecast.CompoundGrowthRate(history)
		}
		return writeJSON(out, body)
	}

	s := newStyles(out)
	fmt.Fprintln(out, s.title.Render(fmt.Sprintf("%s: %s", opts.entity, field.LongName())))
	if insufficient {
		fmt.Fprintln(out, s.muted.Render(fmt.Sprintf(
			"%d observed points, at least %d are needed to forecast", len(history), forecast.MinHistory)))
		return nil
	}

	rows := make([][]string, 0, len(points))
	for _, p := range points {
		kind := "forecast"
		if p.Historical {
			kind = "observed"
		}
		rows = append(rows, []string{strconv.Itoa(p.Period), strconv.FormatFloat(p.Value, 'f', 2, 64), kind})
	}
	fmt.Fprintln(out, s.table([]string{"Period", "Value", "Kind"}, rows))

	trend := forecast.Fit(history)
	fmt.Fprintln(out, s.muted.Render(fmt.Sprintf(
		"slope %.3f per period, r² %.3f, compound growth %.2f%%",
		trend.Slope, trend.R2, forecast.CompoundGrowthRate(history)*100)))
	return nil
}
