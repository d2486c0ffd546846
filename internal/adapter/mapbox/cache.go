package mapbox

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
)

// CachedGeocoder memoizes successful lookups so daily refreshes do not
// geocode the same registry cities again.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics

	mu    sync.Mutex
	limit int
	order *list.List // front is most recently used
	items map[string]*list.Element
}

type cached struct {
	key    string
	result domain.GeocodingResult
}

// NewCachedGeocoder keeps at most size results.
func NewCachedGeocoder(inner domain.Geocoder, size int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		limit:   max(size, 1),
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, state string) (domain.GeocodingResult, error) {
	key := strings.ToLower(name) + "|" + strings.ToLower(state)
	if r, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return r, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	r, err := c.inner.ForwardGeocode(ctx, name, state)
	if err != nil {
		return r, err
	}
	// Misses are not cached so a later run can try again.
	if r.FormattedAddress != "" {
		c.put(key, r)
	}
	return r, nil
}

// Len reports how many results are cached.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedGeocoder) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).result, true
}

func (c *CachedGeocoder) put(key string, r domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*cached).result = r
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cached{key: key, result: r})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cached).key)
	}
}
