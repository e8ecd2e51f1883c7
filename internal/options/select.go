package options

import (
	"fmt"
	"math"
	"sort"

	"uploader/internal/catalog"
)

type SortMode string

const (
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortPriceMain SortMode = "price_main"
)

func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case SortPriceAsc, SortPriceDesc, SortPriceMain:
		return m, nil
	case "":
		return SortPriceAsc, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// SelectMainOption orders valid by mode, keeps at most limit SKUs (limit <= 0
// keeps all) and flags the first one as the main option. Sorting is stable.
// The input slice is not modified. An empty input gives an empty result,
// which callers must treat as an unsendable product.
//
// price_main keeps a SKU already flagged main by the source at the front and
// leaves the rest in source order. Without a flagged SKU it orders by
// distance to the average price.
func SelectMainOption(valid []catalog.SKU, mode SortMode, limit int) []catalog.SKU {
	out := append([]catalog.SKU(nil), valid...)
	if len(out) == 0 {
		return out
	}

	switch mode {
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortPriceMain:
		if idx := flaggedMain(out); idx >= 0 {
			main := out[idx]
			copy(out[1:idx+1], out[:idx])
			out[0] = main
		} else {
			avg := averagePrice(out)
			sort.SliceStable(out, func(i, j int) bool {
				return math.Abs(out[i].Price-avg) < math.Abs(out[j].Price-avg)
			})
		}
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].MainProduct = i == 0
	}
	return out
}

// CapFromMain keeps main plus the SKUs priced at or above it, ascending,
// capped at n (n <= 0 keeps all). main is flagged and goes first.
func CapFromMain(skus []catalog.SKU, main catalog.SKU, n int) []catalog.SKU {
	rest := make([]catalog.SKU, 0, len(skus))
	for _, s := range skus {
		if s.ID == main.ID {
			continue
		}
		if s.Price >= main.Price {
			s.MainProduct = false
			rest = append(rest, s)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Price < rest[j].Price })

	main.MainProduct = true
	out := append([]catalog.SKU{main}, rest...)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MainOf returns the flagged SKU, if any.
func MainOf(skus []catalog.SKU) (catalog.SKU, bool) {
	if idx := flaggedMain(skus); idx >= 0 {
		return skus[idx], true
	}
	return catalog.SKU{}, false
}

func flaggedMain(skus []catalog.SKU) int {
	for i, s := range skus {
		if s.MainProduct {
			return i
		}
	}
	return -1
}

func averagePrice(skus []catalog.SKU) float64 {
	var sum float64
	var n int
	for _, s := range skus {
		if s.Price > 0 {
			sum += s.Price
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
