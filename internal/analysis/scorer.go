package analysis

import (
	"sort"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
)

const (
	// NeutralScore is returned when no rule had its inputs. A record without
	// data is not certified safe.
	NeutralScore = 50.0
	// TopK bounds the number of factors reported per result.
	TopK = 3

	minScore = 0.0
	maxScore = 100.0
)

// band upper bounds, inclusive; anything above the last is Critical
var bands = []struct {
	upper float64
	class Classification
}{
	{0, ClassNone},
	{30, ClassLow},
	{50, ClassModerate},
	{70, ClassHigh},
}

// Classify maps a clamped score onto its band.
func Classify(score float64) Classification {
	for _, b := range bands {
		if score <= b.upper {
			return b.class
		}
	}
	return ClassCritical
}

// Aggregate reduces an evaluation into a bounded score, a classification
// and the top factors. It never fails.
func Aggregate(entity string, eval Evaluation) CrisisResult {
	if eval.Evaluated == 0 {
		return CrisisResult{
			Entity:         entity,
			Score:          NeutralScore,
			Classification: Classify(NeutralScore),
			TopFactors:     []Factor{},
			Neutral:        true,
		}
	}

	total := 0.0
	for _, f := range eval.Fired {
		total += f.Weight
	}
	score := clip(total, minScore, maxScore)

	return CrisisResult{
		Entity:         entity,
		Score:          score,
		Classification: Classify(score),
		TopFactors:     topFactors(eval.Fired, TopK),
		Evaluated:      eval.Evaluated,
	}
}

// topFactors sorts by impact descending; equal impacts keep rule order.
func topFactors(fired []FiredRule, k int) []Factor {
	sorted := append([]FiredRule(nil), fired...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Impact > sorted[j].Impact
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}

	out := make([]Factor, len(sorted))
	for i, f := range sorted {
		out[i] = Factor{Name: f.Name, Value: f.Value, Impact: f.Impact}
	}
	return out
}

// Score evaluates and aggregates a single record against a domain's rules.
// domain must be valid; an unknown one yields a neutral result (see RulesFor).
func Score(rec indicators.Record, domain Domain) CrisisResult {
	res := Aggregate(rec.Entity, Evaluate(rec, RulesFor(domain)))
	res.Period = rec.Period
	res.Domain = domain
	return res
}
