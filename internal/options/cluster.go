package options

import (
	"sort"

	"uploader/internal/catalog"
)

const (
	DefaultClusterGap = 2.0
	ClusterKeyword    = "price_cluster"
	minClusterSKUs    = 3
)

// DetectBaitByPriceCluster groups positively priced SKUs into clusters split
// wherever the next price is at least gap times the previous one. The most
// populated cluster is kept (ties go to the higher average); SKUs in every
// other cluster are bait. Fewer than three priced SKUs are left alone, as are
// SKUs without a price.
func DetectBaitByPriceCluster(skus []catalog.SKU, gap float64) (valid, bait []catalog.SKU) {
	if gap <= 1 {
		gap = DefaultClusterGap
	}

	priced := make([]int, 0, len(skus))
	for i, s := range skus {
		if s.Price > 0 {
			priced = append(priced, i)
		}
	}
	if len(priced) < minClusterSKUs {
		return append([]catalog.SKU(nil), skus...), []catalog.SKU{}
	}

	sort.SliceStable(priced, func(a, b int) bool {
		return skus[priced[a]].Price < skus[priced[b]].Price
	})

	var clusters [][]int
	current := []int{priced[0]}
	for _, idx := range priced[1:] {
		prev := skus[current[len(current)-1]].Price
		if skus[idx].Price/prev >= gap {
			clusters = append(clusters, current)
			current = nil
		}
		current = append(current, idx)
	}
	clusters = append(clusters, current)

	if len(clusters) == 1 {
		return append([]catalog.SKU(nil), skus...), []catalog.SKU{}
	}

	best := 0
	for i := 1; i < len(clusters); i++ {
		switch {
		case len(clusters[i]) > len(clusters[best]):
			best = i
		case len(clusters[i]) == len(clusters[best]) && avgPrice(skus, clusters[i]) > avgPrice(skus, clusters[best]):
			best = i
		}
	}

	outlier := map[int]bool{}
	for i, c := range clusters {
		if i == best {
			continue
		}
		for _, idx := range c {
			outlier[idx] = true
		}
	}

	valid = make([]catalog.SKU, 0, len(skus))
	bait = make([]catalog.SKU, 0, len(outlier))
	for i, s := range skus {
		if outlier[i] {
			s.BaitKeyword = ClusterKeyword
			bait = append(bait, s)
			continue
		}
		valid = append(valid, s)
	}
	return valid, bait
}

func avgPrice(skus []catalog.SKU, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += skus[i].Price
	}
	return sum / float64(len(idx))
}
