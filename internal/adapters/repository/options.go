package repository

// defaultLeagueCapacity bounds each league's event history.
const defaultLeagueCapacity = 50

// CacheOption applies a configuration option to the event cache.
type CacheOption func(*memoryCache)

// WithLeagueCapacity sets how many events each league retains.
func WithLeagueCapacity(n int) CacheOption {
	return func(c *memoryCache) {
		if n > 0 {
			c.capacity = n
		}
	}
}
