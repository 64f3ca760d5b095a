package analysis

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
)

// BatchOptions controls post-processing of a batch run. The zero value
// returns every entity in first-appearance order.
type BatchOptions struct {
	// MinScore keeps only results with score strictly above it.
	MinScore *float64
	// SortByScore orders results by descending score; ties keep input order.
	SortByScore bool
	// Workers bounds parallel scoring. Zero means GOMAXPROCS.
	Workers int
}

// LatestPerEntity keeps the maximum-period record of each entity, in order
// of first appearance. When an entity repeats a period the first record wins.
// Records with an empty entity are dropped.
func LatestPerEntity(records []indicators.Record) []indicators.Record {
	index := make(map[string]int)
	latest := make([]indicators.Record, 0)

	for _, rec := range records {
		if rec.Entity == "" {
			continue
		}
		i, seen := index[rec.Entity]
		if !seen {
			index[rec.Entity] = len(latest)
			latest = append(latest, rec)
			continue
		}
		if rec.Period > latest[i].Period {
			latest[i] = rec
		}
	}
	return latest
}

// RunBatch scores the latest record of every entity. Scoring may run in
// parallel; the output order depends only on the input. domain is not
// validated here, see RulesFor.
func RunBatch(ctx context.Context, records []indicators.Record, domain Domain, opts BatchOptions) ([]CrisisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	latest := LatestPerEntity(records)
	results := make([]CrisisResult, len(latest))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range latest {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Score(latest[i], domain)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.MinScore != nil {
		filtered := results[:0]
		for _, r := range results {
			if r.Score > *opts.MinScore {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if opts.SortByScore {
		// results are still in input order here, so a stable sort keeps ties by input index
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	return results, nil
}
