package executor

import (
	"time"

	"complex-tracker/internal/config"
	"complex-tracker/internal/database"
)

// history window and sample limit for timeout estimation
const (
	historyWindow = 30 * 24 * time.Hour
	historyLimit  = 50
	safetyFactor  = 1.5
)

// ComputeTimeout estimates how long a crawl of complexCount complexes
// should be allowed to run, based on recent completed jobs.
//
// With history: average observed per-complex duration, scaled by the
// complex count and a safety factor, plus the base buffer, clamped to
// the configured min/max. Without history: base plus a fixed allowance
// per complex, capped at the max.
func ComputeTimeout(samples []database.JobSample, complexCount int, cfg *config.CrawlerConfig) time.Duration {
	if complexCount < 1 {
		complexCount = 1
	}

	var perComplexSum time.Duration
	var n int
	for _, s := range samples {
		if s.ComplexCount < 1 || s.Duration <= 0 {
			continue
		}
		perComplexSum += time.Duration(s.Duration) * time.Second / time.Duration(s.ComplexCount)
		n++
	}

	if n == 0 {
		timeout := cfg.GetBaseTimeout() + time.Duration(complexCount)*cfg.GetPerComplexTimeout()
		if timeout > cfg.GetMaxTimeout() {
			timeout = cfg.GetMaxTimeout()
		}
		return timeout
	}

	avgPerComplex := perComplexSum / time.Duration(n)
	estimated := time.Duration(float64(avgPerComplex)*float64(complexCount)*safetyFactor) + cfg.GetBaseTimeout()

	if estimated < cfg.GetMinTimeout() {
		return cfg.GetMinTimeout()
	}
	if estimated > cfg.GetMaxTimeout() {
		return cfg.GetMaxTimeout()
	}
	return estimated
}

// HistoryParams returns the sample limit and lookback window used
// when querying job history for timeout estimation.
func HistoryParams() (limit int, window time.Duration) {
	return historyLimit, historyWindow
}
