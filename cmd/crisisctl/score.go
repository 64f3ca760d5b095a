package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/analysis"
)

type scoreOptions struct {
	domain   string
	file     string
	json     bool
	minScore float64
	sort     bool
	workers  int
}

func newScoreCmd() *cobra.Command {
	var opts scoreOptions

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score the latest record of every entity in a CSV file",
		Example: `  crisisctl score --file data/wdi.csv --domain economic --sort
  crisisctl score --file data/wdi.csv --domain food --min-score 50 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts, cmd.Flags().Changed("min-score"))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.domain, "domain", "d", string(analysis.DomainEconomic), "crisis domain: economic or food")
	f.StringVarP(&opts.file, "file", "f", "", "indicator CSV file")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	f.Float64Var(&opts.minScore, "min-score", 0, "keep only results scoring above this")
	f.BoolVar(&opts.sort, "sort", false, "order by descending score")
	f.IntVar(&opts.workers, "workers", 0, "parallel scoring workers (0 uses every CPU)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runScore(cmd *cobra.Command, opts scoreOptions, filter bool) error {
	domain, err := analysis.ParseDomain(opts.domain)
	if err != nil {
		return err
	}
	records, err := loadRecords(opts.file)
	if err != nil {
		return err
	}

	batch := analysis.BatchOptions{SortByScore: opts.sort, Workers: opts.workers}
	if filter {
		batch.MinScore = &opts.minScore
	}

	results, err := analysis.RunBatch(cmd.Context(), records, domain, batch)
	if err != nil {
		return err
	}
	summary := analysis.Summarize(results)

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, map[string]any{
			"domain":  domain,
			"results": results,
			"summary": summary,
		})
	}

	s := newStyles(out)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		score := strconv.FormatFloat(r.Score, 'f', 1, 64)
		if r.Neutral {
			score += "*"
		}
		rows = append(rows, []string{
			r.Entity,
			strconv.Itoa(r.Period),
			score,
			s.classification(r.Classification),
			factorList(r.TopFactors),
		})
	}

	fmt.Fprintln(out, s.title.Render(fmt.Sprintf("%s crisis risk", domain)))
	fmt.Fprintln(out, s.table([]string{"Entity", "Period", "Score", "Class", "Top factors"}, rows))
	fmt.Fprintln(out, s.muted.Render(fmt.Sprintf(
		"%d entities, %d high risk, mean %.1f, median %.1f",
		summary.Count, summary.HighRisk, summary.MeanScore, summary.MedianScore)))
	if summary.Neutral > 0 {
		fmt.Fprintln(out, s.muted.Render(fmt.Sprintf("* %d without any indicator data, scored neutral", summary.Neutral)))
	}
	return nil
}
