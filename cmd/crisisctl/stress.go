package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/analysis"
	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
)

type stressOptions struct {
	domain  string
	file    string
	field   string
	factors []float64
	json    bool
}

func newStressCmd() *cobra.Command {
	var opts stressOptions

	cmd := &cobra.Command{
		Use:     "stress",
		Short:   "Multiply one indicator by each factor and report the score shift",
		Example: `  crisisctl stress --file data/wdi.csv --field inflation --factors 1,1.5,2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.domain, "domain", "d", string(analysis.DomainEconomic), "crisis domain: economic or food")
	f.StringVarP(&opts.file, "file", "f", "", "indicator CSV file")
	f.StringVar(&opts.field, "field", "", "indicator to shock")
	f.Float64SliceVar(&opts.factors, "factors", []float64{0.5, 1, 1.5, 2}, "multipliers to apply")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func runStress(cmd *cobra.Command, opts stressOptions) error {
	domain, err := analysis.ParseDomain(opts.domain)
	if err != nil {
		return err
	}
	field, ok := indicators.ParseField(opts.field)
	if !ok {
		return apperrors.NewValidationErrorWithMap("invalid flags",
			map[string]string{"field": "unknown indicator " + strconv.Quote(opts.field)})
	}
	for _, factor := range opts.factors {
		if factor <= 0 {
			return apperrors.NewValidationErrorWithMap("invalid flags",
				map[string]string{"factors": "every factor must be positive"})
		}
	}

	records, err := loadRecords(opts.file)
	if err != nil {
		return err
	}
	results := analysis.Sensitivity(records, domain, field, opts.factors)

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, map[string]any{"domain": domain, "field": field, "results": results})
	}

	s := newStyles(out)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.FormatFloat(r.Factor, 'g', -1, 64),
			strconv.FormatFloat(r.MeanBaseline, 'f', 1, 64),
			strconv.FormatFloat(r.MeanShocked, 'f', 1, 64),
			fmt.Sprintf("%+.1f", r.MeanDelta),
		})
	}
	fmt.Fprintln(out, s.title.Render(fmt.Sprintf("%s stress on %s", domain, field)))
	fmt.Fprintln(out, s.table([]string{"Factor", "Baseline", "Shocked", "Delta"}, rows))
	return nil
}
