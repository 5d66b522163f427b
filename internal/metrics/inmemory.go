package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProductCacheHits           uint64
	ProductCacheMisses         uint64
	ProductReadDurationCount   uint64
	ProductReadDurationTotalNs int64
	ProductsCreated            uint64
	ProductsUpdated            uint64
	ManufacturersCreated       uint64
	ManufacturersUpdated       uint64
	ValidationFailures         uint64
	OwnershipDenials           uint64
	AuthFailures               uint64
	TokensIssued               uint64
	RateLimitedAPI             uint64
	RateLimitedToken           uint64
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	productCacheHits           atomic.Uint64
	productCacheMisses         atomic.Uint64
	productReadDurationCount   atomic.Uint64
	productReadDurationTotalNs atomic.Int64
	productsCreated            atomic.Uint64
	productsUpdated            atomic.Uint64
	manufacturersCreated       atomic.Uint64
	manufacturersUpdated       atomic.Uint64
	validationFailures         atomic.Uint64
	ownershipDenials           atomic.Uint64
	authFailures               atomic.Uint64
	tokensIssued               atomic.Uint64
	rateLimitedAPI             atomic.Uint64
	rateLimitedToken           atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ProductCacheHits:           m.productCacheHits.Load(),
		ProductCacheMisses:         m.productCacheMisses.Load(),
		ProductReadDurationCount:   m.productReadDurationCount.Load(),
		ProductReadDurationTotalNs: m.productReadDurationTotalNs.Load(),
		ProductsCreated:            m.productsCreated.Load(),
		ProductsUpdated:            m.productsUpdated.Load(),
		ManufacturersCreated:       m.manufacturersCreated.Load(),
		ManufacturersUpdated:       m.manufacturersUpdated.Load(),
		ValidationFailures:         m.validationFailures.Load(),
		OwnershipDenials:           m.ownershipDenials.Load(),
		AuthFailures:               m.authFailures.Load(),
		TokensIssued:               m.tokensIssued.Load(),
		RateLimitedAPI:             m.rateLimitedAPI.Load(),
		RateLimitedToken:           m.rateLimitedToken.Load(),
	}
}

// IncProductCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncProductCacheHit() {
	m.productCacheHits.Add(1)
}

// IncProductCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncProductCacheMiss() {
	m.productCacheMisses.Add(1)
}

// ObserveProductReadDuration records product read duration.
func (m *InMemoryRecorder) ObserveProductReadDuration(duration time.Duration) {
	m.productReadDurationCount.Add(1)
	m.productReadDurationTotalNs.Add(duration.Nanoseconds())
}

// IncProductCreated increments product created counter.
func (m *InMemoryRecorder) IncProductCreated() {
	m.productsCreated.Add(1)
}

// IncProductUpdated increments product updated counter.
func (m *InMemoryRecorder) IncProductUpdated() {
	m.productsUpdated.Add(1)
}

// IncManufacturerCreated increments manufacturer created counter.
func (m *InMemoryRecorder) IncManufacturerCreated() {
	m.manufacturersCreated.Add(1)
}

// IncManufacturerUpdated increments manufacturer updated counter.
func (m *InMemoryRecorder) IncManufacturerUpdated() {
	m.manufacturersUpdated.Add(1)
}

// IncValidationFailed increments the rejected-payload counter.
func (m *InMemoryRecorder) IncValidationFailed() {
	m.validationFailures.Add(1)
}

// IncOwnershipDenied increments the forbidden-update counter.
func (m *InMemoryRecorder) IncOwnershipDenied() {
	m.ownershipDenials.Add(1)
}

// IncAuthFailure increments the auth failure counter. The reason is not kept.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.authFailures.Add(1)
}

// IncTokenIssued increments issued token counter.
func (m *InMemoryRecorder) IncTokenIssued() {
	m.tokensIssued.Add(1)
}

// IncRateLimited increments the rejected request counter for a scope.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	if scope == "token" {
		m.rateLimitedToken.Add(1)
		return
	}
	m.rateLimitedAPI.Add(1)
}
