package hfcache

import "fmt"

func formatRate(rate, min float64, samples int) string {
	return fmt.Sprintf("hit rate %.2f below %.2f after %d lookups", rate, min, samples)
}

func formatGrowth(memory, budget int64, pages int) string {
	return fmt.Sprintf("memory estimate %d bytes exceeds budget %d for %d pages", memory, budget, pages)
}
