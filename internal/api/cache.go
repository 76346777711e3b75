package api

import (
	"container/list"
	"sync"

	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

const defaultReportCacheSize = 20

// CachedReport is an archived report with its index row. Row.ID is the key.
type CachedReport struct {
	Row    store.Report
	Report grades.YearReport
}

// ReportCache keeps the most recently read archived reports in memory.
// Archived reports are immutable, so entries only leave by eviction.
type ReportCache struct {
	mu       sync.Mutex
	capacity int
	recency  *list.List // of CachedReport, most recent at the front
	byID     map[string]*list.Element
}

// NewReportCache returns a cache holding up to capacity reports, or 20 when
// capacity is not positive.
func NewReportCache(capacity int) *ReportCache {
	if capacity <= 0 {
		capacity = defaultReportCacheSize
	}
	return &ReportCache{
		capacity: capacity,
		recency:  list.New(),
		byID:     make(map[string]*list.Element, capacity),
	}
}

// Get returns the report with the given id and marks it as recently used.
func (c *ReportCache) Get(reportID string) (CachedReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byID[reportID]
	if !ok {
		return CachedReport{}, false
	}
	c.recency.MoveToFront(el)
	return el.Value.(CachedReport), true
}

// Put stores r under r.Row.ID, dropping the least recently used report when
// the cache is full.
func (c *ReportCache) Put(r CachedReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byID[r.Row.ID]; ok {
		el.Value = r
		c.recency.MoveToFront(el)
		return
	}
	if c.recency.Len() >= c.capacity {
		last := c.recency.Back()
		c.recency.Remove(last)
		delete(c.byID, last.Value.(CachedReport).Row.ID)
	}
	c.byID[r.Row.ID] = c.recency.PushFront(r)
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}
