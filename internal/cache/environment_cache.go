// Package cache keeps resolved environments in memory for serve mode.
//
// Entries are keyed by UTC day. Concurrent requests for a day that is not
// in memory share a single resolution, so a burst of requests for a new day
// costs one artifact read or one forecast fetch. A background worker evicts
// days that have fallen behind the retention window.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
	"github.com/WilliamArmst/testTwoStageRocket/internal/metrics"
)

// Resolver is the backing environment source.
type Resolver interface {
	Resolve(ctx context.Context, date time.Time) (*environment.Resolution, error)
	Cached(ctx context.Context, date time.Time) (*environment.Record, error)
}

// Config holds in-memory cache settings.
type Config struct {
	Retain        int           // Past days kept in memory (default: 1).
	SweepInterval time.Duration // Eviction interval (default: 10m).
}

type entry struct {
	record   *environment.Record
	key      string
	loadedAt time.Time
}

// call is an in-flight resolution other callers can wait on.
type call struct {
	done chan struct{}
	res  *environment.Resolution
	err  error
}

// EnvironmentCache fronts a Resolver with an in-memory map of days.
// Safe for concurrent use by multiple goroutines.
type EnvironmentCache struct {
	mu       sync.RWMutex
	entries  map[time.Time]*entry
	inflight map[time.Time]*call

	resolver Resolver
	config   Config
	logger   *slog.Logger
	now      func() time.Time

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates an empty cache in front of resolver.
func New(config Config, resolver Resolver, logger *slog.Logger) *EnvironmentCache {
	if config.Retain < 0 {
		config.Retain = 0
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = 10 * time.Minute
	}
	logger.Info("environment cache initialized",
		"component", "cache",
		"retain_days", config.Retain,
		"sweep_interval_seconds", config.SweepInterval.Seconds(),
	)
	return &EnvironmentCache{
		entries:  make(map[time.Time]*entry),
		inflight: make(map[time.Time]*call),
		resolver: resolver,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *EnvironmentCache) get(day time.Time) (*entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[day]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	metrics.RecordMemoryLookup(ok)
	return e, ok
}

func (c *EnvironmentCache) put(day time.Time, rec *environment.Record) {
	c.mu.Lock()
	c.entries[day] = &entry{record: rec, key: environment.Key(day), loadedAt: c.now()}
	n := len(c.entries)
	c.mu.Unlock()
	metrics.SetMemoryEntries(n)
}

// Resolve returns the environment for the day of date. A day held in memory
// is reported with SourceCache. Otherwise the backing resolver is called
// once per day no matter how many callers are waiting; its work is not
// cancelled when the first caller goes away.
func (c *EnvironmentCache) Resolve(ctx context.Context, date time.Time) (*environment.Resolution, error) {
	day := environment.Day(date)
	if e, ok := c.get(day); ok {
		return &environment.Resolution{Record: e.record, Source: environment.SourceCache, Key: e.key}, nil
	}

	c.mu.Lock()
	if e, ok := c.entries[day]; ok {
		c.mu.Unlock()
		return &environment.Resolution{Record: e.record, Source: environment.SourceCache, Key: e.key}, nil
	}
	cl, leader := c.inflight[day], false
	if cl == nil {
		cl = &call{done: make(chan struct{})}
		c.inflight[day] = cl
		leader = true
	}
	c.mu.Unlock()

	if leader {
		go c.resolve(context.WithoutCancel(ctx), day, cl)
	}

	select {
	case <-cl.done:
		return cl.res, cl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *EnvironmentCache) resolve(ctx context.Context, day time.Time, cl *call) {
	cl.res, cl.err = c.resolver.Resolve(ctx, day)
	if cl.err == nil {
		c.put(day, cl.res.Record)
	}

	c.mu.Lock()
	delete(c.inflight, day)
	c.mu.Unlock()
	close(cl.done)
}

// Cached returns the day from memory or from the backing artifact without
// fetching a forecast.
func (c *EnvironmentCache) Cached(ctx context.Context, date time.Time) (*environment.Record, error) {
	day := environment.Day(date)
	if e, ok := c.get(day); ok {
		return e.record, nil
	}
	rec, err := c.resolver.Cached(ctx, day)
	if err != nil {
		return nil, err
	}
	c.put(day, rec)
	return rec, nil
}

// Start runs the eviction loop until ctx is cancelled.
func (c *EnvironmentCache) Start(ctx context.Context) {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-ctx.Done():
			return
		}
	}
}

// evictExpired removes days older than today minus Retain.
func (c *EnvironmentCache) evictExpired() int {
	cutoff := environment.Day(c.now()).AddDate(0, 0, -c.config.Retain)
	var removed int

	c.mu.Lock()
	for day := range c.entries {
		if day.Before(cutoff) {
			delete(c.entries, day)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddMemoryEvictions(removed)
		metrics.SetMemoryEntries(n)
		c.logger.Debug("cache eviction", "component", "cache", "entries_removed", removed)
	}
	return removed
}

// Stats holds cache statistics.
type Stats struct {
	Entries   int
	Oldest    time.Time
	Newest    time.Time
	Hits      int64
	Misses    int64
	Evictions int64
}

// Stats returns current cache statistics.
func (c *EnvironmentCache) Stats() Stats {
	c.mu.RLock()
	count := len(c.entries)
	var oldest, newest time.Time
	for day := range c.entries {
		if oldest.IsZero() || day.Before(oldest) {
			oldest = day
		}
		if newest.IsZero() || day.After(newest) {
			newest = day
		}
	}
	c.mu.RUnlock()

	return Stats{
		Entries:   count,
		Oldest:    oldest,
		Newest:    newest,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
