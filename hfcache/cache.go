package hfcache

import (
	"container/list"

	"github.com/tsawler/quire/measure"
	"github.com/tsawler/quire/metrics"
	"github.com/tsawler/quire/model"
)

// Slot distinguishes header entries from footer entries
type Slot int

const (
	SlotHeader Slot = iota
	SlotFooter
)

func (s Slot) String() string {
	if s == SlotFooter {
		return "footer"
	}
	return "header"
}

// KeyMode selects how page numbers are folded into cache keys
type KeyMode int

const (
	// KeyExact keys by literal page number.
	KeyExact KeyMode = iota
	// KeyBucket keys by digit-count class.
	KeyBucket
)

// Key identifies one resolved header/footer layout
type Key struct {
	Section int
	Slot    Slot
	Variant model.HFVariant
	Mode    KeyMode
	// Number is the page number in exact mode, the digit bucket in bucket
	// mode. Total folds in the total page count the same way, since the
	// width of a NUMPAGES token depends on it.
	Number int
	Total  int
}

// KeyFor builds the cache key for a page. Bucket keying applies when
// enabled and the document is at least threshold pages; otherwise keys are
// exact. A changed digit bucket always produces a distinct key, so a 1-digit
// entry can never serve a 2-digit page.
func KeyFor(section int, slot Slot, variant model.HFVariant, pageNumber, totalPages, threshold int, bucketing bool) Key {
	k := Key{Section: section, Slot: slot, Variant: variant}
	if bucketing && totalPages >= threshold {
		k.Mode = KeyBucket
		k.Number = model.DigitBucket(pageNumber)
		k.Total = model.DigitBucket(totalPages)
	} else {
		k.Mode = KeyExact
		k.Number = pageNumber
		k.Total = totalPages
	}
	return k
}

// Layout is a resolved, measured header/footer: the token-substituted block
// copies, their measures, and the resulting reserved height.
type Layout struct {
	Blocks   []model.Block
	Measures []measure.Measure
	Height   float64
}

// Config holds cache configuration
type Config struct {
	// Capacity is the maximum number of entries before LRU eviction.
	Capacity int
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{Capacity: 128}
}

type entry struct {
	key    Key
	layout Layout
	size   int64
}

// Cache is a session-owned LRU cache of resolved header/footer layouts.
// It is a single-writer structure scoped to one document session; it is not
// safe for concurrent use and never needs to be.
type Cache struct {
	config  Config
	entries map[Key]*list.Element
	order   *list.List // front = most recently used

	hits      int
	misses    int
	evictions int
	memory    int64
}

// New creates a cache with default configuration
func New() *Cache {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a cache with custom configuration
func NewWithConfig(config Config) *Cache {
	if config.Capacity < 1 {
		config.Capacity = 1
	}
	return &Cache{
		config:  config,
		entries: make(map[Key]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached layout for the key, if present
func (c *Cache) Get(key Key) (Layout, bool) {
	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return Layout{}, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).layout, true
}

// Put stores a resolved layout, evicting the least-recently-used entry when
// over capacity.
func (c *Cache) Put(key Key, layout Layout) {
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		c.memory += estimateSize(layout) - e.size
		e.layout = layout
		e.size = estimateSize(layout)
		c.order.MoveToFront(el)
		return
	}

	e := &entry{key: key, layout: layout, size: estimateSize(layout)}
	c.entries[key] = c.order.PushFront(e)
	c.memory += e.size

	for c.order.Len() > c.config.Capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		old := oldest.Value.(*entry)
		c.order.Remove(oldest)
		delete(c.entries, old.key)
		c.memory -= old.size
		c.evictions++
	}
}

// Invalidate drops every entry but keeps the counters, which describe the
// whole session.
func (c *Cache) Invalidate() {
	c.entries = make(map[Key]*list.Element)
	c.order.Init()
	c.memory = 0
}

// Len returns the current entry count
func (c *Cache) Len() int {
	return c.order.Len()
}

// Stats reports the cache counters
func (c *Cache) Stats() metrics.CacheStats {
	s := metrics.CacheStats{
		Hits:           c.hits,
		Misses:         c.misses,
		CacheSize:      c.order.Len(),
		MemoryEstimate: c.memory,
		Evictions:      c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// CheckHealth reports advisory warnings for cache pathology: a hit rate
// below minHitRate once at least minSample lookups happened (thrash), and a
// memory estimate beyond budgetPer100Pages scaled to the document size
// (unbounded growth). Both are diagnostics only.
func (c *Cache) CheckHealth(minSample int, minHitRate float64, budgetPer100Pages int64, totalPages int) []metrics.Warning {
	var warnings []metrics.Warning

	if total := c.hits + c.misses; total >= minSample {
		rate := float64(c.hits) / float64(total)
		if rate < minHitRate {
			warnings = append(warnings, metrics.Warning{
				Code:    metrics.WarnCacheThrash,
				Message: formatRate(rate, minHitRate, total),
			})
		}
	}

	if budgetPer100Pages > 0 && totalPages > 0 {
		budget := budgetPer100Pages * (int64(totalPages) + 99) / 100
		if c.memory > budget {
			warnings = append(warnings, metrics.Warning{
				Code:    metrics.WarnCacheGrowth,
				Message: formatGrowth(c.memory, budget, totalPages),
			})
		}
	}
	return warnings
}

// estimateSize approximates an entry's memory footprint: a fixed overhead
// per block and line plus run text bytes. It only needs to be proportional,
// not exact.
func estimateSize(l Layout) int64 {
	size := int64(64) // entry bookkeeping
	for _, b := range l.Blocks {
		size += 96
		if p, ok := b.(*model.Paragraph); ok {
			for _, r := range p.Runs {
				size += 48 + int64(len(r.Text))
			}
		}
	}
	for _, m := range l.Measures {
		size += 48
		for _, ln := range m.Lines {
			size += 56 + int64(len(ln.Text))
		}
	}
	return size
}
