package hfcache

import (
	"fmt"
	"testing"

	"github.com/tsawler/quire/metrics"
	"github.com/tsawler/quire/model"
)

func headerKey(page int) Key {
	return Key{Section: 0, Slot: SlotHeader, Variant: model.VariantDefault, Mode: KeyExact, Number: page}
}

func TestCache_HitAfterPut(t *testing.T) {
	c := New()

	key := headerKey(3)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(key, Layout{Height: 20})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got.Height != 20 {
		t.Errorf("height = %v, want 20", got.Height)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss", stats)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", stats.HitRate)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := NewWithConfig(Config{Capacity: 2})

	c.Put(headerKey(1), Layout{Height: 10})
	c.Put(headerKey(2), Layout{Height: 10})

	// Touch key 1 so key 2 becomes the eviction victim.
	c.Get(headerKey(1))
	c.Put(headerKey(3), Layout{Height: 10})

	if _, ok := c.Get(headerKey(2)); ok {
		t.Error("expected key 2 to be evicted")
	}
	if _, ok := c.Get(headerKey(1)); !ok {
		t.Error("expected key 1 to survive")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	c.Put(headerKey(1), Layout{Height: 10})
	c.Invalidate()

	if c.Len() != 0 {
		t.Errorf("len after invalidate = %d, want 0", c.Len())
	}
	if c.Stats().MemoryEstimate != 0 {
		t.Error("memory estimate should reset on invalidate")
	}
	// Counters describe the session and survive invalidation.
	if c.Stats().Misses == 0 {
		t.Error("expected pre-invalidation counters to survive")
	}
}

func TestKeyFor_BucketSwitch(t *testing.T) {
	const threshold = 64

	// Small document: exact keys, distinct per page.
	k9 := KeyFor(0, SlotHeader, model.VariantDefault, 9, 10, threshold, true)
	k10 := KeyFor(0, SlotHeader, model.VariantDefault, 10, 10, threshold, true)
	if k9.Mode != KeyExact || k9 == k10 {
		t.Errorf("expected distinct exact keys, got %+v and %+v", k9, k10)
	}

	// Large document: bucket keys. Page 7 and 8 share a key; 9 and 10 must not.
	k7 := KeyFor(0, SlotHeader, model.VariantDefault, 7, 500, threshold, true)
	k8 := KeyFor(0, SlotHeader, model.VariantDefault, 8, 500, threshold, true)
	if k7.Mode != KeyBucket || k7 != k8 {
		t.Errorf("expected shared bucket key for pages 7/8, got %+v and %+v", k7, k8)
	}
	b9 := KeyFor(0, SlotHeader, model.VariantDefault, 9, 500, threshold, true)
	b10 := KeyFor(0, SlotHeader, model.VariantDefault, 10, 500, threshold, true)
	if b9 == b10 {
		t.Error("a 1-digit bucket entry must not serve a 2-digit page")
	}

	// Bucketing disabled: always exact.
	k := KeyFor(0, SlotHeader, model.VariantDefault, 7, 500, threshold, false)
	if k.Mode != KeyExact {
		t.Errorf("expected exact keying when bucketing disabled, got %+v", k)
	}
}

func TestCache_CheckHealth(t *testing.T) {
	c := New()

	// Below minimum sample: silent regardless of rate.
	c.Get(headerKey(1))
	if w := c.CheckHealth(20, 0.3, 0, 0); len(w) != 0 {
		t.Errorf("expected no warnings under sample minimum, got %v", w)
	}

	// Drive the hit rate to zero over enough samples.
	for i := 0; i < 30; i++ {
		c.Get(headerKey(i + 10))
	}
	warnings := c.CheckHealth(20, 0.3, 0, 0)
	if len(warnings) != 1 || warnings[0].Code != metrics.WarnCacheThrash {
		t.Errorf("expected a thrash warning, got %v", warnings)
	}

	// Memory budget: tiny budget with a populated cache warns.
	c.Put(headerKey(1), Layout{Blocks: []model.Block{
		&model.Paragraph{BlockID: "h1", Runs: []model.TextRun{{Text: "a very long header text"}}},
	}})
	warnings = c.CheckHealth(1000, 0.0, 1, 100)
	if len(warnings) != 1 || warnings[0].Code != metrics.WarnCacheGrowth {
		t.Errorf("expected a growth warning, got %v", warnings)
	}
}

func TestCache_MemoryEstimateTracksEntries(t *testing.T) {
	c := New()

	before := c.Stats().MemoryEstimate
	for i := 0; i < 5; i++ {
		c.Put(headerKey(i), Layout{Blocks: []model.Block{
			&model.Paragraph{BlockID: model.BlockID(fmt.Sprintf("h%d", i)), Runs: []model.TextRun{{Text: "header"}}},
		}})
	}
	after := c.Stats().MemoryEstimate
	if after <= before {
		t.Errorf("memory estimate did not grow: %d -> %d", before, after)
	}
}
