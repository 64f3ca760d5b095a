package analysis

import "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"

// Evaluate applies rules to rec in declaration order. A rule with any absent
// dependency is skipped: it neither fires nor counts as evaluated.
func Evaluate(rec indicators.Record, rules []RiskRule) Evaluation {
	eval := Evaluation{Fired: make([]FiredRule, 0, len(rules))}

	for i, rule := range rules {
		values, ok := gather(rec, rule.Fields)
		if !ok {
			continue
		}
		eval.Evaluated++

		if !rule.Predicate(values) {
			continue
		}
		impact := rule.Impact(values)
		if impact < 0 {
			impact = 0
		}
		eval.Fired = append(eval.Fired, FiredRule{
			Name:   rule.Name,
			Value:  rule.observed(values),
			Impact: impact,
			Weight: rule.Weight,
			Order:  i,
		})
	}

	return eval
}

func gather(rec indicators.Record, fields []indicators.Field) (Values, bool) {
	if len(fields) == 0 {
		return nil, false
	}
	values := make(Values, len(fields))
	for i, f := range fields {
		v, ok := rec.Value(f)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
