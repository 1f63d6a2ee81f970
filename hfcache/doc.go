// Package hfcache memoizes resolved header/footer layouts so repeated
// pagination passes do not re-measure identical content on every page.
//
// The key insight: header/footer height depends only on the digit count of
// the page number, not its literal value. Page 7 and page 8 measure
// identically; page 99 and page 100 do not. The cache therefore supports two
// keying modes. Small documents key exactly by page number; large documents
// key by digit bucket (one cache line per digit-count class), bounding
// memory at a handful of entries per variant. The switch is automatic based
// on total page count.
//
// Eviction is least-recently-used with a configurable capacity. The cache
// exposes hit/miss/eviction counters and an estimated memory footprint, and
// [Cache.CheckHealth] turns pathological numbers into advisory warnings —
// never failures.
package hfcache
