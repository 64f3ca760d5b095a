package analysis

import (
	"fmt"
	"strings"
)

// Domain selects the rule table a record is scored against.
type Domain string

const (
	DomainEconomic Domain = "economic"
	DomainFood     Domain = "food"
)

// ParseDomain accepts "economic" or "food", case-insensitively.
func ParseDomain(s string) (Domain, error) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case DomainEconomic:
		return DomainEconomic, nil
	case DomainFood:
		return DomainFood, nil
	}
	return "", fmt.Errorf("unknown crisis domain %q", s)
}

// Classification is an ordered risk tier.
type Classification string

const (
	ClassNone     Classification = "None"
	ClassLow      Classification = "Low"
	ClassModerate Classification = "Moderate"
	ClassHigh     Classification = "High"
	ClassCritical Classification = "Critical"
)

// Rank orders classifications: None=0 through Critical=4. Unknown values rank -1.
func (c Classification) Rank() int {
	switch c {
	case ClassNone:
		return 0
	case ClassLow:
		return 1
	case ClassModerate:
		return 2
	case ClassHigh:
		return 3
	case ClassCritical:
		return 4
	}
	return -1
}

// Factor is one contributing rule in a CrisisResult.
type Factor struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Impact float64 `json:"impact"`
}

// FiredRule is the outcome of a rule whose predicate held.
type FiredRule struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Impact float64 `json:"impact"`
	Weight float64 `json:"weight"`
	Order  int     `json:"order"`
}

// Evaluation is the Rule Evaluator output. Evaluated counts rules whose
// inputs were all present, whether or not they fired.
type Evaluation struct {
	Fired     []FiredRule `json:"fired"`
	Evaluated int         `json:"evaluated"`
}

// CrisisResult is the scored outcome for one record. Callers must treat it
// as read-only; TopFactors ordering is part of the contract.
type CrisisResult struct {
	Entity         string         `json:"entity"`
	Period         int            `json:"period"`
	Domain         Domain         `json:"domain"`
	Score          float64        `json:"score"`
	Classification Classification `json:"classification"`
	TopFactors     []Factor       `json:"top_factors"`
	Evaluated      int            `json:"evaluated_rules"`
	Neutral        bool           `json:"neutral"`
}

// IsHighRisk reports whether the result sits in one of the two top bands.
func (r CrisisResult) IsHighRisk() bool {
	return r.Classification.Rank() >= ClassHigh.Rank()
}
