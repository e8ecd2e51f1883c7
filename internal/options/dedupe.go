package options

import (
	"strings"

	"uploader/internal/catalog"
)

// DedupeSKUs drops repeats of an id or of an option value (prop_val_ids,
// else the option text). The first occurrence wins.
func DedupeSKUs(skus []catalog.SKU) (unique, dropped []catalog.SKU) {
	seenID := make(map[string]bool, len(skus))
	seenValue := make(map[string]bool, len(skus))
	unique = make([]catalog.SKU, 0, len(skus))

	for _, s := range skus {
		value := s.PropValIDs
		if value == "" {
			value = strings.ToLower(strings.TrimSpace(s.Text))
		}
		if (s.ID != "" && seenID[s.ID]) || (value != "" && seenValue[value]) {
			dropped = append(dropped, s)
			continue
		}
		if s.ID != "" {
			seenID[s.ID] = true
		}
		if value != "" {
			seenValue[value] = true
		}
		unique = append(unique, s)
	}
	return unique, dropped
}
