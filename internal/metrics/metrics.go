// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Product read path
	IncProductCacheHit()
	IncProductCacheMiss()
	ObserveProductReadDuration(duration time.Duration)

	// Catalog writes
	IncProductCreated()
	IncProductUpdated()
	IncManufacturerCreated()
	IncManufacturerUpdated()
	IncValidationFailed()
	IncOwnershipDenied()

	// Auth
	IncAuthFailure(reason string)
	IncTokenIssued()
	IncRateLimited(scope string) // scope: "api" or "token"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
