package service

import (
	"sync"
	"time"
)

// DefaultReportTTL is how long a computed report stays fresh.
const DefaultReportTTL = 5 * time.Minute

// ReportCache memoizes payroll reports per month. Any attendance or
// payroll mutation clears the whole cache; precision is not worth the
// staleness risk.
type ReportCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	report    *Report
	expiresAt time.Time
}

// NewReportCache creates a report cache with the given TTL
func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached report for a month, if fresh.
func (c *ReportCache) Get(month string) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[month]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.report, true
}

// Put stores a report for a month
func (c *ReportCache) Put(month string, report *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[month] = cacheEntry{
		report:    report,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate drops every cached report
func (c *ReportCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
