package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
)

// BenchmarkScoreEconomic benchmarks a single economic scoring pass
func BenchmarkScoreEconomic(b *testing.B) {
	rec := crisisEconomic("Argentina", 2023)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		res := Score(rec, DomainEconomic)
		if res.Score != 75 {
			b.Fatalf("unexpected score: %v", res.Score)
		}
	}
}

// BenchmarkScoreFood benchmarks a single food scoring pass
func BenchmarkScoreFood(b *testing.B) {
	rec := benignFood("Kenya", 2022)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = Score(rec, DomainFood)
	}
}

func benchmarkRecords(entities, years int) []indicators.Record {
	records := make([]indicators.Record, 0, entities*years)
	for e := 0; e < entities; e++ {
		for y := 0; y < years; y++ {
			rec := benignEconomic(fmt.Sprintf("entity-%d", e), 2000+y)
			rec.Inflation = f(float64((e*7 + y) % 40))
			rec.GDPGrowth = f(float64((e+y)%9 - 4))
			records = append(records, rec)
		}
	}
	return records
}

// BenchmarkRunBatch benchmarks the batch runner at different worker counts
func BenchmarkRunBatch(b *testing.B) {
	records := benchmarkRecords(250, 20)

	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				results, err := RunBatch(context.Background(), records, DomainEconomic, BatchOptions{SortByScore: true, Workers: workers})
				if err != nil {
					b.Fatal(err)
				}
				if len(results) != 250 {
					b.Fatalf("expected 250 results, got %d", len(results))
				}
			}
		})
	}
}
