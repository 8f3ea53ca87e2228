package currency

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Cache keeps the latest fixing for a TTL and historical years for the life
// of the process. The current year keeps growing, so it expires like the
// latest fixing.
type Cache struct {
	mu  sync.Mutex
	ttl time.Duration
	now Clock

	latest   *RateSet
	latestAt time.Time

	years *lru.Cache[int, yearEntry]
}

type yearEntry struct {
	sets      []RateSet
	fetchedAt time.Time
}

// NewCache creates a cache. maxYears bounds how many historical years are
// retained; a nil clock means time.Now.
func NewCache(ttl time.Duration, maxYears int, now Clock) *Cache {
	if now == nil {
		now = time.Now
	}
	if maxYears <= 0 {
		maxYears = 16
	}
	years, err := lru.New[int, yearEntry](maxYears)
	if err != nil {
		panic(err)
	}
	return &Cache{ttl: ttl, now: now, years: years}
}

// Latest returns the cached latest fixing and whether it is still fresh.
func (c *Cache) Latest() (set RateSet, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return RateSet{}, false, false
	}
	return *c.latest, c.now().Sub(c.latestAt) < c.ttl, true
}

func (c *Cache) StoreLatest(set RateSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = &set
	c.latestAt = c.now()
}

// Year returns the cached fixings of year. The entry for the current year
// is only returned while fresh.
func (c *Cache) Year(year int) ([]RateSet, bool) {
	e, ok := c.years.Get(year)
	if !ok {
		return nil, false
	}
	if year >= c.now().Year() && c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.sets, true
}

func (c *Cache) StoreYear(year int, sets []RateSet) {
	c.years.Add(year, yearEntry{sets: sets, fetchedAt: c.now()})
}

func (c *Cache) Now() time.Time {
	return c.now()
}
