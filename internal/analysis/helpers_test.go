package analysis

import "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"

var f = indicators.Float

// benignEconomic returns a record with every economic field present and no rule firing.
func benignEconomic(entity string, period int) indicators.Record {
	return indicators.Record{
		Entity:            entity,
		Period:            period,
		GDPGrowth:         f(3),
		Inflation:         f(4),
		Unemployment:      f(5),
		DomesticCredit:    f(60),
		Exports:           f(30),
		Imports:           f(32),
		GDPPerCapita:      f(8000),
		GrossFixedCapital: f(22),
	}
}

// benignFood returns a record with every food field present and no rule firing.
func benignFood(entity string, period int) indicators.Record {
	return indicators.Record{
		Entity:              entity,
		Period:              period,
		CerealYield:         f(4000),
		FoodImports:         f(10),
		FoodProductionIndex: f(105),
		Inflation:           f(3),
		PopulationGrowth:    f(1),
		GDPPerCapita:        f(5000),
		GDPGrowth:           f(2),
	}
}

func withFields(r indicators.Record, kv map[indicators.Field]float64) indicators.Record {
	out := r.Clone()
	for k, v := range kv {
		out.Set(k, v)
	}
	return out
}

func factorNames(fs []Factor) []string {
	names := make([]string, len(fs))
	for i, x := range fs {
		names[i] = x.Name
	}
	return names
}
