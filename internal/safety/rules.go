package safety

import (
	"sort"
	"strings"
)

type Tier string

const (
	TierNormal Tier = "normal"
	TierStrict Tier = "strict"
	TierSkip   Tier = "skip"
)

func (t Tier) Valid() bool {
	return t == TierNormal || t == TierStrict || t == TierSkip
}

// Rules is the word and category data the classifier runs on.
type Rules struct {
	// Banned words grouped by risk category (adult, medical, brand, ...).
	Banned map[string][]string
	// Excluded words are never treated as banned.
	Excluded []string
	// SafeContext lists, per banned word, phrases that clear a hit. A word
	// mapped to an empty list can never be cleared.
	SafeContext map[string][]string
	// GeneralSafeContext clears words with no SafeContext entry.
	GeneralSafeContext []string

	CategoryTiers map[string]Tier
	// DefaultTier applies to a category missing from CategoryTiers. Empty
	// sends such products to manual review.
	DefaultTier Tier
}

// TierFor resolves the tier of a category name or path. An exact key wins,
// then the longest key contained in the category.
func (r Rules) TierFor(category string) (Tier, bool) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", false
	}
	if t, ok := r.CategoryTiers[category]; ok {
		return t, true
	}

	best, bestLen := Tier(""), 0
	for key, t := range r.CategoryTiers {
		if key != "" && strings.Contains(category, key) && len(key) > bestLen {
			best, bestLen = t, len(key)
		}
	}
	if bestLen > 0 {
		return best, true
	}
	if r.DefaultTier != "" {
		return r.DefaultTier, true
	}
	return "", false
}

// Match is one banned word found in product text.
type Match struct {
	Category string `json:"category"`
	Word     string `json:"word"`
}

// scan returns the banned words found in text that no excluded word or safe
// context clears, plus the contexts that cleared the others.
func (r Rules) scan(text string) (hits []Match, cleared []string) {
	lower := strings.ToLower(text)
	excluded := make(map[string]bool, len(r.Excluded))
	for _, w := range r.Excluded {
		excluded[strings.ToLower(strings.TrimSpace(w))] = true
	}

	categories := make([]string, 0, len(r.Banned))
	for c := range r.Banned {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		for _, word := range r.Banned[cat] {
			w := strings.ToLower(strings.TrimSpace(word))
			if w == "" || excluded[w] || !strings.Contains(lower, w) {
				continue
			}
			if ctx := r.safeContext(word, lower); ctx != "" {
				cleared = append(cleared, ctx)
				continue
			}
			hits = append(hits, Match{Category: cat, Word: word})
		}
	}
	return hits, cleared
}

func (r Rules) safeContext(word, lower string) string {
	contexts, specific := r.SafeContext[word]
	if !specific {
		contexts = r.GeneralSafeContext
	}
	for _, c := range contexts {
		if c != "" && strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	return ""
}

// DefaultRules is the built-in list used when no rule file is configured.
func DefaultRules() Rules {
	return Rules{
		Banned: map[string][]string{
			"adult":      {"성인용품", "콘돔", "러브젤", "바이브", "딜도", "자위", "섹시란제리", "sex"},
			"medical":    {"의료기기", "혈압계", "혈당", "보청기", "콘택트렌즈", "체온계", "주사기", "의약품", "치료"},
			"child":      {"신생아", "젖병", "유아용", "어린이용", "아기띠"},
			"prohibited": {"도검", "가스총", "모의총포", "전자담배", "마약", "석궁", "레이저포인터", "칼"},
			"brand": {
				"나이키", "아디다스", "샤넬", "구찌", "루이비통", "디올", "애플", "다이슨", "레고", "디즈니",
				"nike", "adidas", "chanel", "gucci", "louis vuitton", "apple", "dyson", "lego", "disney",
			},
		},
		SafeContext: map[string][]string{
			"칼":  {"칼라", "칼슘", "칼국수"},
			"애플": {"애플망고", "파인애플", "애플민트"},
			"치료": {},
			"마약": {"마약베개", "마약쿠션", "마약방석"},
		},
		GeneralSafeContext: []string{"호환", "케이스", "거치대", "보관함", "커버", "compatible"},
		CategoryTiers: map[string]Tier{
			"패션의류":      TierNormal,
			"패션잡화":      TierNormal,
			"화장품/미용":    TierStrict,
			"디지털/가전":    TierNormal,
			"가구/인테리어":   TierNormal,
			"출산/육아":     TierStrict,
			"식품":        TierSkip,
			"스포츠/레저":    TierNormal,
			"생활/건강":     TierStrict,
			"여가/생활편의":   TierNormal,
			"면세점":       TierSkip,
			"도서/음반/DVD": TierNormal,
			"캠핑":        TierNormal,
			"낚시":        TierNormal,
			"골프":        TierNormal,
		},
	}
}
