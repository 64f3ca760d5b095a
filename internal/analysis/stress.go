package analysis

import "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"

// EntityShift is the score movement of one entity under a shock.
type EntityShift struct {
	Entity   string  `json:"entity"`
	Baseline float64 `json:"baseline"`
	Shocked  float64 `json:"shocked"`
	Delta    float64 `json:"delta"`
}

// StressResult reports how scores respond to multiplying one field by Factor.
type StressResult struct {
	Field        indicators.Field `json:"field"`
	Factor       float64          `json:"factor"`
	MeanBaseline float64          `json:"mean_baseline"`
	MeanShocked  float64          `json:"mean_shocked"`
	MeanDelta    float64          `json:"mean_delta"`
	Shifts       []EntityShift    `json:"shifts"`
}

// Simulate scales field by factor in the latest record of each entity and
// rescores. Entities without the field keep it absent and show no delta.
// The input records are not modified.
func Simulate(records []indicators.Record, domain Domain, field indicators.Field, factor float64) StressResult {
	latest := LatestPerEntity(records)
	res := StressResult{Field: field, Factor: factor, Shifts: make([]EntityShift, 0, len(latest))}

	var base, shocked []float64
	for _, rec := range latest {
		b := Score(rec, domain).Score
		s := b
		if v, ok := rec.Value(field); ok {
			s = Score(rec.With(field, v*factor), domain).Score
		}
		base = append(base, b)
		shocked = append(shocked, s)
		res.Shifts = append(res.Shifts, EntityShift{Entity: rec.Entity, Baseline: b, Shocked: s, Delta: s - b})
	}

	res.MeanBaseline = mean(base)
	res.MeanShocked = mean(shocked)
	res.MeanDelta = res.MeanShocked - res.MeanBaseline
	return res
}

// Sensitivity runs Simulate for each factor, in the order given.
func Sensitivity(records []indicators.Record, domain Domain, field indicators.Field, factors []float64) []StressResult {
	out := make([]StressResult, 0, len(factors))
	for _, f := range factors {
		out = append(out, Simulate(records, domain, field, f))
	}
	return out
}
