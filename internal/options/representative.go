package options

import (
	"path"
	"strings"

	"uploader/internal/catalog"
)

type MatchMethod string

const (
	MatchSource      MatchMethod = "source"
	MatchThumbnail   MatchMethod = "thumbnail"
	MatchName        MatchMethod = "name"
	MatchLowestPrice MatchMethod = "lowest_price"
	MatchNone        MatchMethod = ""
)

// Korean labels used in operator reports.
var matchLabels = map[MatchMethod]string{
	MatchSource:      "원본지정",
	MatchThumbnail:   "썸네일매칭",
	MatchName:        "상품명매칭",
	MatchLowestPrice: "최저가",
}

func (m MatchMethod) Label() string { return matchLabels[m] }

const minImageIDLen = 4

// MatchRepresentative picks the SKU that best represents the listing:
// a SKU already flagged main, else the one whose image is the main thumbnail,
// else the one whose label appears in the product name, else the cheapest.
// Returns -1 for an empty list.
func MatchRepresentative(name string, thumbnails []string, skus []catalog.SKU) (int, MatchMethod) {
	if len(skus) == 0 {
		return -1, MatchNone
	}
	if idx := flaggedMain(skus); idx >= 0 {
		return idx, MatchSource
	}
	if idx := MatchThumbnailToSKU(thumbnails, skus); idx >= 0 {
		return idx, MatchThumbnail
	}
	if idx := matchByName(name, skus); idx >= 0 {
		return idx, MatchName
	}
	return lowestPrice(skus), MatchLowestPrice
}

// MatchThumbnailToSKU finds the first thumbnail, in order, whose image id is
// shared with a SKU image. alicdn URLs also match on the bare file name.
func MatchThumbnailToSKU(thumbnails []string, skus []catalog.SKU) int {
	for _, thumb := range thumbnails {
		tid := ImageID(thumb)
		if len(tid) < minImageIDLen {
			continue
		}
		for i, s := range skus {
			if s.Image == "" {
				continue
			}
			sid := ImageID(s.Image)
			if strings.Contains(s.Image, tid) || (len(sid) >= minImageIDLen && strings.Contains(thumb, sid)) {
				return i
			}
			if strings.Contains(thumb, "alicdn") && fileName(thumb) == fileName(s.Image) {
				return i
			}
		}
	}
	return -1
}

// ImageID is the last path segment of u without query or extension.
func ImageID(u string) string {
	name := fileName(u)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

func fileName(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return path.Base(strings.TrimRight(u, "/"))
}

// matchByName prefers the longest SKU label found inside the product name.
func matchByName(name string, skus []catalog.SKU) int {
	lowerName := strings.ToLower(name)
	if lowerName == "" {
		return -1
	}
	best, bestLen := -1, 0
	for i, s := range skus {
		for _, label := range []string{s.TextKo, s.Text, s.Name} {
			l := strings.ToLower(strings.TrimSpace(label))
			if len(l) < 2 || !strings.Contains(lowerName, l) {
				continue
			}
			if len(l) > bestLen {
				best, bestLen = i, len(l)
			}
		}
	}
	return best
}

func lowestPrice(skus []catalog.SKU) int {
	best := -1
	for i, s := range skus {
		if s.Price <= 0 {
			continue
		}
		if best < 0 || s.Price < skus[best].Price {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
