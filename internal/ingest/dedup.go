package ingest

import "github.com/tradesparky/pricewatch/internal/crawler"

// DedupProducts collapses repeated SKUs from a single crawl down to one
// record each, preserving first-seen order. When two records share a SKU and
// both carry a price, the lower price wins (the better deal). When either
// price is missing the first-seen record is kept.
func DedupProducts(in []crawler.ProductRecord) []crawler.ProductRecord {
	out := make([]crawler.ProductRecord, 0, len(in))
	index := make(map[string]int, len(in))

	for _, rec := range in {
		pos, seen := index[rec.SKU]
		if !seen {
			index[rec.SKU] = len(out)
			out = append(out, rec)
			continue
		}
		existing := out[pos]
		if rec.Price > 0 && existing.Price > 0 && rec.Price < existing.Price {
			out[pos] = rec
		}
	}
	return out
}
