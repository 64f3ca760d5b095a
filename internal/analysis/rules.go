package analysis

import "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"

// Values carries the dependency values of a rule, in the order of RiskRule.Fields.
type Values []float64

// RiskRule is a threshold test over one or two indicator fields. Predicate
// and Impact are only called when every field in Fields is present.
type RiskRule struct {
	Name      string
	Domain    Domain
	Fields    []indicators.Field
	Predicate func(Values) bool
	// Observed is the value reported in the factor list. Defaults to the first field.
	Observed func(Values) float64
	Impact   func(Values) float64
	Weight   float64
}

func (r RiskRule) observed(v Values) float64 {
	if r.Observed != nil {
		return r.Observed(v)
	}
	return v[0]
}

func below(threshold float64) (func(Values) bool, func(Values) float64) {
	return func(v Values) bool { return v[0] < threshold },
		func(v Values) float64 { return threshold - v[0] }
}

func above(threshold float64) (func(Values) bool, func(Values) float64) {
	return func(v Values) bool { return v[0] > threshold },
		func(v Values) float64 { return v[0] - threshold }
}

// belowScaled reports shortfall in hundreds of units (kg/ha, USD).
func belowScaled(threshold float64) (func(Values) bool, func(Values) float64) {
	return func(v Values) bool { return v[0] < threshold },
		func(v Values) float64 { return (threshold - v[0]) / 100 }
}

func single(name string, d Domain, f indicators.Field, weight float64, test func(float64) (func(Values) bool, func(Values) float64), threshold float64) RiskRule {
	pred, impact := test(threshold)
	return RiskRule{
		Name:      name,
		Domain:    d,
		Fields:    []indicators.Field{f},
		Predicate: pred,
		Impact:    impact,
		Weight:    weight,
	}
}

// Policy thresholds. These are externally defined constants, not fitted values.
const (
	InflationThreshold        = 10.0
	UnemploymentThreshold     = 10.0
	TradeDeficitThreshold     = -5.0
	CreditThreshold           = 100.0
	InvestmentThreshold       = 15.0
	OutputPerCapitaThreshold  = 1500.0
	CerealYieldThreshold      = 2000.0
	FoodImportThreshold       = 20.0
	FoodProductionThreshold   = 100.0
	PopulationGrowthThreshold = 2.5
)

var economicRules = []RiskRule{
	single("gdp_contraction", DomainEconomic, indicators.GDPGrowth, 30, below, 0),
	single("high_inflation", DomainEconomic, indicators.Inflation, 25, above, InflationThreshold),
	single("high_unemployment", DomainEconomic, indicators.Unemployment, 20, above, UnemploymentThreshold),
	{
		Name:      "trade_deficit",
		Domain:    DomainEconomic,
		Fields:    []indicators.Field{indicators.Exports, indicators.Imports},
		Predicate: func(v Values) bool { return v[0]-v[1] < TradeDeficitThreshold },
		Observed:  func(v Values) float64 { return v[0] - v[1] },
		Impact:    func(v Values) float64 { return TradeDeficitThreshold - (v[0] - v[1]) },
		Weight:    15,
	},
	single("credit_overextension", DomainEconomic, indicators.DomesticCredit, 10, above, CreditThreshold),
	single("low_investment", DomainEconomic, indicators.GrossFixedCapital, 10, below, InvestmentThreshold),
	single("low_output_per_capita", DomainEconomic, indicators.GDPPerCapita, 10, belowScaled, OutputPerCapitaThreshold),
}

var foodRules = []RiskRule{
	single("low_cereal_yield", DomainFood, indicators.CerealYield, 25, belowScaled, CerealYieldThreshold),
	single("food_import_dependence", DomainFood, indicators.FoodImports, 20, above, FoodImportThreshold),
	single("declining_food_production", DomainFood, indicators.FoodProductionIndex, 20, below, FoodProductionThreshold),
	single("food_price_inflation", DomainFood, indicators.Inflation, 15, above, InflationThreshold),
	single("rapid_population_growth", DomainFood, indicators.PopulationGrowth, 10, above, PopulationGrowthThreshold),
	single("low_income", DomainFood, indicators.GDPPerCapita, 10, belowScaled, OutputPerCapitaThreshold),
	single("economic_contraction", DomainFood, indicators.GDPGrowth, 10, below, 0),
}

// EconomicRules returns the economic rule table in declaration order.
func EconomicRules() []RiskRule { return append([]RiskRule(nil), economicRules...) }

// FoodRules returns the food rule table in declaration order.
func FoodRules() []RiskRule { return append([]RiskRule(nil), foodRules...) }

// RulesFor returns the rule table of a domain. An unknown domain is not
// checked and gets nil, which scores every record as neutral; callers
// taking a domain from input must go through ParseDomain first.
func RulesFor(d Domain) []RiskRule {
	switch d {
	case DomainEconomic:
		return EconomicRules()
	case DomainFood:
		return FoodRules()
	}
	return nil
}
