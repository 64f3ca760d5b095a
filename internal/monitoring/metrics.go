package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds application metrics
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	BatchRuns           int64
	PersistedResults    int64
	Forecasts           int64
	InsufficientHistory int64
	StressRuns          int64
	RateLimitBlocks     int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// records scored and neutral outcomes, keyed by domain
	ScoredByDomain  map[string]int64
	NeutralByDomain map[string]int64
	DomainMutex     sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
		ScoredByDomain:       make(map[string]int64),
		NeutralByDomain:      make(map[string]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementRateLimitBlock counts a request rejected by the limiter.
func (m *Metrics) IncrementRateLimitBlock() {
	atomic.AddInt64(&m.RateLimitBlocks, 1)
}

// RecordScored counts n scored records of domain, neutral of them neutral.
func (m *Metrics) RecordScored(domain string, n, neutral int) {
	m.DomainMutex.Lock()
	defer m.DomainMutex.Unlock()
	m.ScoredByDomain[domain] += int64(n)
	m.NeutralByDomain[domain] += int64(neutral)
}

// RecordBatch counts a batch run and the results it persisted.
func (m *Metrics) RecordBatch(persisted int) {
	atomic.AddInt64(&m.BatchRuns, 1)
	atomic.AddInt64(&m.PersistedResults, int64(persisted))
}

// RecordForecast counts a forecast, noting short histories.
func (m *Metrics) RecordForecast(insufficient bool) {
	atomic.AddInt64(&m.Forecasts, 1)
	if insufficient {
		atomic.AddInt64(&m.InsufficientHistory, 1)
	}
}

// RecordStress counts a stress test run.
func (m *Metrics) RecordStress() {
	atomic.AddInt64(&m.StressRuns, 1)
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	atomic.StoreInt64(&m.AverageResponseTime, (current+duration.Nanoseconds())/2)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)
	m.ResponseTimesMutex.RUnlock()

	if len(times) == 0 {
		return 0
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetScoringStats returns per-domain scoring counts.
func (m *Metrics) GetScoringStats() map[string]interface{} {
	m.DomainMutex.RLock()
	defer m.DomainMutex.RUnlock()

	stats := make(map[string]interface{}, len(m.ScoredByDomain))
	for domain, scored := range m.ScoredByDomain {
		stats[domain] = map[string]int64{
			"scored":  scored,
			"neutral": m.NeutralByDomain[domain],
		}
	}
	return stats
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"avg_response_time_ms":   float64(atomic.LoadInt64(&m.AverageResponseTime)) / 1e6,
		"start_time":             m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),

		"scoring":              m.GetScoringStats(),
		"batch_runs":           atomic.LoadInt64(&m.BatchRuns),
		"persisted_results":    atomic.LoadInt64(&m.PersistedResults),
		"forecasts":            atomic.LoadInt64(&m.Forecasts),
		"insufficient_history": atomic.LoadInt64(&m.InsufficientHistory),
		"stress_runs":          atomic.LoadInt64(&m.StressRuns),
		"rate_limit_blocks":    atomic.LoadInt64(&m.RateLimitBlocks),

		"go_goroutines":        runtime.NumGoroutine(),
		"go_gc_count":          mem.NumGC,
		"go_gc_pause_total_ns": mem.PauseTotalNs,
		"go_heap_alloc_bytes":  mem.HeapAlloc,
		"go_heap_sys_bytes":    mem.HeapSys,
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	for _, c := range []*int64{
		&m.RequestCount, &m.ErrorCount, &m.CacheHits, &m.CacheMisses,
		&m.BatchRuns, &m.PersistedResults, &m.Forecasts, &m.InsufficientHistory,
		&m.StressRuns, &m.RateLimitBlocks, &m.AverageResponseTime,
	} {
		atomic.StoreInt64(c, 0)
	}

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.DomainMutex.Lock()
	m.ScoredByDomain = make(map[string]int64)
	m.NeutralByDomain = make(map[string]int64)
	m.DomainMutex.Unlock()

	m.StartTime = time.Now()
}
