// Package options partitions a product's SKUs into sellable and decoy
// options and picks the representative one. Everything here is pure.
package options

import (
	"sort"
	"strings"

	"uploader/internal/catalog"
)

const DefaultPriceRatio = 0.5

var DefaultBaitKeywords = []string{
	// made to order
	"맞춤", "커스텀", "custom", "diy", "주문제작", "定制", "定做",
	// deposits and surcharges
	"계약금", "예약금", "보증금", "착수금", "잔금", "추가금",
	// contact the seller
	"고객센터", "상담", "문의", "联系", "咨询", "客服",
	"비고", "참고", "안내", "link", "see description",
	// parts sold on their own
	"부품", "액세서리", "충전기", "어댑터", "케이블", "配件", "零件", "附件",
	// samples
	"샘플", "sample", "테스트", "test", "무료체험", "样品", "试用",
	"옵션선택", "선택안함", "해당없음",
	// shipping
	"배송비", "도서산간", "제주", "택배비", "설치비", "邮费", "运费",
	"1원", "10원", "100원", "0원", "무료", "free", "쿠폰",
	"轻盈款", "轻便款",
}

// DefaultStrongKeywords mark a decoy whatever the price.
var DefaultStrongKeywords = []string{
	"계약금", "예약금", "보증금", "착수금", "잔금", "추가금",
}

type BaitConfig struct {
	Keywords       []string
	StrongKeywords []string
	// PriceRatio: a keyword match is bait when price <= 0 or
	// price < PriceRatio * median(positive prices).
	PriceRatio float64
}

func DefaultBaitConfig() BaitConfig {
	return BaitConfig{
		Keywords:       append([]string(nil), DefaultBaitKeywords...),
		StrongKeywords: append([]string(nil), DefaultStrongKeywords...),
		PriceRatio:     DefaultPriceRatio,
	}
}

// FilterBaitOptions splits skus into valid and bait. Both outputs keep input
// order and together hold every input SKU exactly once. Bait SKUs carry the
// matched keyword in BaitKeyword.
func FilterBaitOptions(skus []catalog.SKU, cfg BaitConfig) (valid, bait []catalog.SKU) {
	valid = make([]catalog.SKU, 0, len(skus))
	bait = make([]catalog.SKU, 0)
	if len(skus) == 0 {
		return valid, bait
	}

	threshold := cfg.PriceRatio * medianPositive(skus)

	for _, s := range skus {
		label := strings.ToLower(s.Label())

		if kw := matchKeyword(label, cfg.StrongKeywords); kw != "" {
			s.BaitKeyword = kw
			bait = append(bait, s)
			continue
		}

		kw := matchKeyword(label, cfg.Keywords)
		if kw != "" && (s.Price <= 0 || s.Price < threshold) {
			s.BaitKeyword = kw
			bait = append(bait, s)
			continue
		}

		s.BaitKeyword = ""
		valid = append(valid, s)
	}
	return valid, bait
}

// MatchKeyword returns the first keyword contained in text, case-insensitive.
func MatchKeyword(text string, keywords []string) string {
	return matchKeyword(strings.ToLower(text), keywords)
}

func matchKeyword(lower string, keywords []string) string {
	if lower == "" {
		return ""
	}
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(lower, k) {
			return kw
		}
	}
	return ""
}

func medianPositive(skus []catalog.SKU) float64 {
	prices := make([]float64, 0, len(skus))
	for _, s := range skus {
		if s.Price > 0 {
			prices = append(prices, s.Price)
		}
	}
	if len(prices) == 0 {
		return 0
	}
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid]
	}
	return (prices[mid-1] + prices[mid]) / 2
}
