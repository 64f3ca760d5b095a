package analysis

import (
	"testing"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_BenignRecordsFireNothing(t *testing.T) {
	econ := Evaluate(benignEconomic("Norway", 2022), EconomicRules())
	assert.Empty(t, econ.Fired)
	assert.Equal(t, len(EconomicRules()), econ.Evaluated)

	food := Evaluate(benignFood("Norway", 2022), FoodRules())
	assert.Empty(t, food.Fired)
	assert.Equal(t, len(FoodRules()), food.Evaluated)
}

func TestEvaluate_FiredInDeclarationOrder(t *testing.T) {
	rec := withFields(benignEconomic("Argentina", 2023), map[indicators.Field]float64{
		indicators.Unemployment: 18,
		indicators.GDPGrowth:    -4,
		indicators.Inflation:    22,
	})

	eval := Evaluate(rec, EconomicRules())
	require.Len(t, eval.Fired, 3)

	assert.Equal(t, "gdp_contraction", eval.Fired[0].Name)
	assert.Equal(t, -4.0, eval.Fired[0].Value)
	assert.Equal(t, 4.0, eval.Fired[0].Impact)
	assert.Equal(t, 30.0, eval.Fired[0].Weight)

	assert.Equal(t, "high_inflation", eval.Fired[1].Name)
	assert.Equal(t, 12.0, eval.Fired[1].Impact)

	assert.Equal(t, "high_unemployment", eval.Fired[2].Name)
	assert.Equal(t, 8.0, eval.Fired[2].Impact)

	for i := 1; i < len(eval.Fired); i++ {
		assert.Less(t, eval.Fired[i-1].Order, eval.Fired[i].Order)
	}
}

func TestEvaluate_AbsentFieldNeverFires(t *testing.T) {
	tests := []struct {
		name      string
		record    indicators.Record
		rule      string
		evaluated int
	}{
		{
			name:      "trade deficit with imports but no exports",
			record:    indicators.Record{Entity: "Lebanon", Imports: f(80)},
			rule:      "trade_deficit",
			evaluated: 0,
		},
		{
			name:      "trade deficit with exports but no imports",
			record:    indicators.Record{Entity: "Lebanon", Exports: f(1)},
			rule:      "trade_deficit",
			evaluated: 0,
		},
		{
			name:      "contraction without growth is not treated as zero growth",
			record:    indicators.Record{Entity: "Lebanon", Inflation: f(4)},
			rule:      "gdp_contraction",
			evaluated: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := Evaluate(tt.record, EconomicRules())
			for _, fr := range eval.Fired {
				assert.NotEqual(t, tt.rule, fr.Name)
			}
			assert.Equal(t, tt.evaluated, eval.Evaluated)
		})
	}
}

func TestEvaluate_TradeDeficitUsesDerivedBalance(t *testing.T) {
	rec := indicators.Record{Entity: "Tonga", Exports: f(10), Imports: f(40)}

	eval := Evaluate(rec, EconomicRules())
	require.Len(t, eval.Fired, 1)
	assert.Equal(t, "trade_deficit", eval.Fired[0].Name)
	assert.Equal(t, -30.0, eval.Fired[0].Value)
	assert.Equal(t, 25.0, eval.Fired[0].Impact)
}

func TestEvaluate_ZeroIsAValue(t *testing.T) {
	// 0% growth is present and not a contraction
	rec := indicators.Record{Entity: "Japan", GDPGrowth: f(0)}

	eval := Evaluate(rec, EconomicRules())
	assert.Empty(t, eval.Fired)
	assert.Equal(t, 1, eval.Evaluated)
}

func TestEvaluate_ImpactsAreNonNegative(t *testing.T) {
	records := []indicators.Record{
		withFields(benignFood("Yemen", 2021), map[indicators.Field]float64{
			indicators.CerealYield:         801.1,
			indicators.FoodImports:         18.41,
			indicators.FoodProductionIndex: 89.88,
			indicators.GDPGrowth:           -3.89,
			indicators.GDPPerCapita:        633.89,
			indicators.Inflation:           13.42,
			indicators.PopulationGrowth:    2.98,
		}),
		benignEconomic("Haiti", 2021),
	}
	for _, rec := range records {
		for _, rules := range [][]RiskRule{EconomicRules(), FoodRules()} {
			for _, fr := range Evaluate(rec, rules).Fired {
				assert.GreaterOrEqual(t, fr.Impact, 0.0, fr.Name)
			}
		}
	}
}

func TestRulesFor(t *testing.T) {
	assert.Len(t, RulesFor(DomainEconomic), 7)
	assert.Len(t, RulesFor(DomainFood), 7)
	assert.Nil(t, RulesFor("water"))

	for _, r := range RulesFor(DomainFood) {
		assert.Equal(t, DomainFood, r.Domain)
	}

	rules := EconomicRules()
	rules[0].Weight = 1000
	assert.Equal(t, 30.0, EconomicRules()[0].Weight, "callers must not be able to edit the table")
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain(" Economic ")
	require.NoError(t, err)
	assert.Equal(t, DomainEconomic, d)

	d, err = ParseDomain("food")
	require.NoError(t, err)
	assert.Equal(t, DomainFood, d)

	_, err = ParseDomain("energy")
	assert.Error(t, err)
}
