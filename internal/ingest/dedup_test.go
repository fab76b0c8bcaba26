package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradesparky/pricewatch/internal/crawler"
)

func TestDedupProducts_KeepsLowerPrice(t *testing.T) {
	in := []crawler.ProductRecord{
		{SKU: "A", Name: "Twin & Earth 2.5mm", Price: 10},
		{SKU: "A", Name: "Twin & Earth 2.5mm", Price: 8},
		{SKU: "B", Name: "RCBO 32A", Price: 5},
	}

	out := DedupProducts(in)
	require.Len(t, out, 2)
	require.Equal(t, "A", out[0].SKU)
	require.Equal(t, 8.0, out[0].Price, "the lower price should win")
	require.Equal(t, "B", out[1].SKU)
	require.Equal(t, 5.0, out[1].Price)
}

func TestDedupProducts_TieBreakMissingPrice(t *testing.T) {
	// A missing price on either side means the first-seen record is kept.
	in := []crawler.ProductRecord{
		{SKU: "A", Name: "first", Price: 10},
		{SKU: "A", Name: "second", Price: 0},
	}
	out := DedupProducts(in)
	require.Len(t, out, 1)
	require.Equal(t, "first", out[0].Name)

	in = []crawler.ProductRecord{
		{SKU: "A", Name: "first", Price: 0},
		{SKU: "A", Name: "second", Price: 3},
	}
	out = DedupProducts(in)
	require.Len(t, out, 1)
	require.Equal(t, "first", out[0].Name)
}

func TestDedupProducts_HigherPriceDoesNotReplace(t *testing.T) {
	in := []crawler.ProductRecord{
		{SKU: "A", Name: "first", Price: 8},
		{SKU: "A", Name: "second", Price: 10},
	}
	out := DedupProducts(in)
	require.Len(t, out, 1)
	require.Equal(t, "first", out[0].Name)
	require.Equal(t, 8.0, out[0].Price)
}

func TestDedupProducts_PreservesFirstSeenOrder(t *testing.T) {
	in := []crawler.ProductRecord{
		{SKU: "C", Price: 1},
		{SKU: "A", Price: 2},
		{SKU: "B", Price: 3},
		{SKU: "A", Price: 1},
	}
	out := DedupProducts(in)
	require.Len(t, out, 3)
	require.Equal(t, "C", out[0].SKU)
	require.Equal(t, "A", out[1].SKU)
	require.Equal(t, "B", out[2].SKU)
	require.Equal(t, 1.0, out[1].Price)
}

func TestDedupProducts_Empty(t *testing.T) {
	require.Empty(t, DedupProducts(nil))
}
