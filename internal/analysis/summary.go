package analysis

// Summary is the dashboard overview of a batch run.
type Summary struct {
	Count       int                    `json:"count"`
	Neutral     int                    `json:"neutral"`
	HighRisk    int                    `json:"high_risk"`
	MeanScore   float64                `json:"mean_score"`
	MedianScore float64                `json:"median_score"`
	ByClass     map[Classification]int `json:"by_classification"`
}

// Summarize counts results per band and reports mean and median score.
func Summarize(results []CrisisResult) Summary {
	s := Summary{
		Count: len(results),
		ByClass: map[Classification]int{
			ClassNone: 0, ClassLow: 0, ClassModerate: 0, ClassHigh: 0, ClassCritical: 0,
		},
	}
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		scores = append(scores, r.Score)
		s.ByClass[r.Classification]++
		if r.Neutral {
			s.Neutral++
		}
		if r.IsHighRisk() {
			s.HighRisk++
		}
	}
	s.MeanScore = mean(scores)
	s.MedianScore = median(scores)
	return s
}
