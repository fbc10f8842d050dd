package measure

import "time"

// Measure collects per-step timings and cache outcomes.
type Measure interface {
	ObserveFit(stepName string, elapsed time.Duration)
	ObserveTransform(stepName string, elapsed time.Duration)
	ObservePersist(stepName string, elapsed time.Duration)
	IncCacheHit(stepName string)
	IncCacheMiss(stepName string)
}
