package sqlstore

import (
	"context"
	"sync"
	"time"

	"github.com/wms-platform/carrier-selection/internal/domain"
	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/metrics"
	"github.com/wms-platform/carrier-selection/pkg/resilience"
)

type cacheEntry struct {
	value   any
	expires time.Time
}

// CachedReferenceRepository keeps the small whole-table reference reads in memory
// and routes every read through a circuit breaker.
type CachedReferenceRepository struct {
	next    domain.ReferenceRepository
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedReferenceRepository wraps next; a non-positive ttl disables caching
func NewCachedReferenceRepository(next domain.ReferenceRepository, ttl time.Duration, m *metrics.Metrics, logger *logging.Logger) *CachedReferenceRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	cbConfig := resilience.DefaultCircuitBreakerConfig("reference-data")
	if m != nil {
		cbConfig.OnStateChange = resilience.RecordStateChanges(m)
	}
	return &CachedReferenceRepository{
		next:    next,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker(cbConfig, logger.Logger),
		metrics: m,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

var _ domain.ReferenceRepository = (*CachedReferenceRepository)(nil)

// Invalidate drops every cached entry
func (c *CachedReferenceRepository) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *CachedReferenceRepository) lookup(table, key string) (any, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	hit := ok && c.now().Before(entry.expires)
	if c.metrics != nil {
		c.metrics.RecordReferenceCacheLookup(table, hit)
	}
	if !hit {
		return nil, false
	}
	return entry.value, true
}

func (c *CachedReferenceRepository) store(key string, value any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func cached[T any](ctx context.Context, c *CachedReferenceRepository, table, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(table, key); ok {
		return v.(T), nil
	}
	value, err := resilience.ExecuteWithResult(ctx, c.breaker, load)
	if err != nil {
		var zero T
		return zero, err
	}
	c.store(key, value)
	return value, nil
}

func guarded[T any](ctx context.Context, c *CachedReferenceRepository, load func(ctx context.Context) (T, error)) (T, error) {
	return resilience.ExecuteWithResult(ctx, c.breaker, load)
}

// ListCarriers returns the cached carrier list
func (c *CachedReferenceRepository) ListCarriers(ctx context.Context) ([]domain.Carrier, error) {
	return cached(ctx, c, "carriers", "carriers", c.next.ListCarriers)
}

// ListCapacities returns the cached capacity list
func (c *CachedReferenceRepository) ListCapacities(ctx context.Context) ([]domain.Capacity, error) {
	return cached(ctx, c, "capacities", "capacities", c.next.ListCapacities)
}

// ListBranches returns the cached branches of a ship origin
func (c *CachedReferenceRepository) ListBranches(ctx context.Context, shipOrigin string) ([]domain.CarrierBranch, error) {
	return cached(ctx, c, "branches", "branches|"+shipOrigin, func(ctx context.Context) ([]domain.CarrierBranch, error) {
		return c.next.ListBranches(ctx, shipOrigin)
	})
}

func (c *CachedReferenceRepository) FindProducts(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	return guarded(ctx, c, func(ctx context.Context) (map[string]domain.Product, error) {
		return c.next.FindProducts(ctx, codes)
	})
}

func (c *CachedReferenceRepository) FindRegions(ctx context.Context, postalCodes []string) (map[string]string, error) {
	return guarded(ctx, c, func(ctx context.Context) (map[string]string, error) {
		return c.next.FindRegions(ctx, postalCodes)
	})
}

func (c *CachedReferenceRepository) FindAreas(ctx context.Context, regionCodes []string) (map[string]string, error) {
	return guarded(ctx, c, func(ctx context.Context) (map[string]string, error) {
		return c.next.FindAreas(ctx, regionCodes)
	})
}

func (c *CachedReferenceRepository) ListFeeRules(ctx context.Context, areaCodes []string) ([]domain.FeeRule, error) {
	return guarded(ctx, c, func(ctx context.Context) ([]domain.FeeRule, error) {
		return c.next.ListFeeRules(ctx, areaCodes)
	})
}

func (c *CachedReferenceRepository) ListSpecialCapacities(ctx context.Context, dates []time.Time) ([]domain.SpecialCapacity, error) {
	return guarded(ctx, c, func(ctx context.Context) ([]domain.SpecialCapacity, error) {
		return c.next.ListSpecialCapacities(ctx, dates)
	})
}

func (c *CachedReferenceRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]domain.Holiday, error) {
	return guarded(ctx, c, func(ctx context.Context) ([]domain.Holiday, error) {
		return c.next.ListHolidays(ctx, from, to)
	})
}

func (c *CachedReferenceRepository) ListSpecialLeadTimes(ctx context.Context, shipDates []time.Time) ([]domain.SpecialLeadTime, error) {
	return guarded(ctx, c, func(ctx context.Context) ([]domain.SpecialLeadTime, error) {
		return c.next.ListSpecialLeadTimes(ctx, shipDates)
	})
}
