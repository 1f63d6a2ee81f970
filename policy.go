package quire

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy collects the engine's operational heuristics. The defaults are
// empirically tuned, not derived invariants: none of them is load-bearing
// for correctness, and operators may override any of them, in code or from
// a YAML file, to widen budgets or quiet warnings.
type Policy struct {
	// MaxIterations bounds the token-resolution fixed-point loop.
	MaxIterations int `yaml:"maxIterations"`

	// WarnIterations is the iteration count beyond which a degraded-mode
	// warning is recorded.
	WarnIterations int `yaml:"warnIterations"`

	// WarnResolveTimeMs is the total resolution wall time, in milliseconds,
	// beyond which a degraded-mode warning is recorded.
	WarnResolveTimeMs int `yaml:"warnResolveTimeMs"`

	// CacheCapacity is the header/footer cache's LRU capacity.
	CacheCapacity int `yaml:"cacheCapacity"`

	// BucketThresholdPages is the page count at which cache keying switches
	// from exact page numbers to digit buckets.
	BucketThresholdPages int `yaml:"bucketThresholdPages"`

	// CacheMinSample is the minimum lookup count before the hit rate is
	// judged.
	CacheMinSample int `yaml:"cacheMinSample"`

	// CacheMinHitRate is the hit rate below which cache thrash is reported.
	CacheMinHitRate float64 `yaml:"cacheMinHitRate"`

	// CacheBudgetPer100Pages is the advisory memory budget, in bytes per
	// 100 pages of document.
	CacheBudgetPer100Pages int64 `yaml:"cacheBudgetPer100Pages"`
}

// DefaultPolicy returns the stock operational policy
func DefaultPolicy() Policy {
	return Policy{
		MaxIterations:          5,
		WarnIterations:         2,
		WarnResolveTimeMs:      100,
		CacheCapacity:          128,
		BucketThresholdPages:   64,
		CacheMinSample:         20,
		CacheMinHitRate:        0.30,
		CacheBudgetPer100Pages: 1 << 20,
	}
}

// normalized fills zero-valued fields from the defaults so a partial policy
// (for example a YAML file overriding one threshold) behaves sensibly.
func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MaxIterations <= 0 {
		p.MaxIterations = d.MaxIterations
	}
	if p.WarnIterations <= 0 {
		p.WarnIterations = d.WarnIterations
	}
	if p.WarnResolveTimeMs <= 0 {
		p.WarnResolveTimeMs = d.WarnResolveTimeMs
	}
	if p.CacheCapacity <= 0 {
		p.CacheCapacity = d.CacheCapacity
	}
	if p.BucketThresholdPages <= 0 {
		p.BucketThresholdPages = d.BucketThresholdPages
	}
	if p.CacheMinSample <= 0 {
		p.CacheMinSample = d.CacheMinSample
	}
	if p.CacheMinHitRate <= 0 {
		p.CacheMinHitRate = d.CacheMinHitRate
	}
	if p.CacheBudgetPer100Pages <= 0 {
		p.CacheBudgetPer100Pages = d.CacheBudgetPer100Pages
	}
	return p
}

// LoadPolicy reads a YAML policy file. Fields absent from the file keep
// their defaults.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return p.normalized(), nil
}
