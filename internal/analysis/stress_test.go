package analysis

import (
	"testing"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stressFixture() []indicators.Record {
	return []indicators.Record{
		{Entity: "X", Period: 2022, Inflation: f(8), Unemployment: f(5), GDPGrowth: f(2)},
		{Entity: "Y", Period: 2022, GDPGrowth: f(-1)},
	}
}

func TestSimulate_InflationShock(t *testing.T) {
	records := stressFixture()

	res := Simulate(records, DomainEconomic, indicators.Inflation, 1.5)

	assert.Equal(t, indicators.Inflation, res.Field)
	assert.Equal(t, 1.5, res.Factor)
	assert.Equal(t, 15.0, res.MeanBaseline)
	assert.Equal(t, 27.5, res.MeanShocked)
	assert.Equal(t, 12.5, res.MeanDelta)

	require.Len(t, res.Shifts, 2)
	assert.Equal(t, EntityShift{Entity: "X", Baseline: 0, Shocked: 25, Delta: 25}, res.Shifts[0])
	assert.Equal(t, EntityShift{Entity: "Y", Baseline: 30, Shocked: 30, Delta: 0}, res.Shifts[1])

	assert.Equal(t, 8.0, *records[0].Inflation, "input records must not change")
	assert.False(t, records[1].Has(indicators.Inflation), "absent fields stay absent")
}

func TestSensitivity_RunsFactorsInOrder(t *testing.T) {
	factors := []float64{0.5, 1, 1.5, 3}

	results := Sensitivity(stressFixture(), DomainEconomic, indicators.Inflation, factors)

	require.Len(t, results, len(factors))
	for i, r := range results {
		assert.Equal(t, factors[i], r.Factor)
	}
	assert.Equal(t, 0.0, results[1].MeanDelta, "factor 1 is the baseline")
	assert.GreaterOrEqual(t, results[3].MeanShocked, results[2].MeanShocked)
}

func TestSimulate_EmptyInput(t *testing.T) {
	res := Simulate(nil, DomainFood, indicators.CerealYield, 0.8)
	assert.Empty(t, res.Shifts)
	assert.Equal(t, 0.0, res.MeanDelta)
}
