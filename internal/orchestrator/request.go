package orchestrator

import (
	"uploader/internal/apperr"
	"uploader/internal/catalog"
	"uploader/internal/config"
	"uploader/internal/options"
	"uploader/internal/worker/processors/validation"
)

// FromSession turns an operator session into a run request for groups.
func FromSession(s *config.Session, groups []string) (Request, error) {
	sort, err := options.ParseSortMode(s.OptionSort)
	if err != nil {
		return Request{}, apperr.Wrap(apperr.Config, err, "option_sort")
	}
	markets, err := ParseMarkets(s.Markets)
	if err != nil {
		return Request{}, err
	}

	p := s.Pricing
	pricing := options.PriceSettings{
		ExchangeRate: p.ExchangeRate,
		CardFeeRate:  p.CardFeeRate,
		MarginRate:   p.MarginRate,
		MarginFixed:  p.MarginFixed,
		RoundUnit:    p.RoundUnit,
		MinPrice:     p.MinPrice,
		MaxPrice:     p.MaxPrice,
	}

	return Request{
		Groups:           groups,
		Markets:          markets,
		UploadCount:      s.UploadCount,
		StatusFilters:    s.StatusFilters,
		ExcludeTag:       s.ExcludeTag,
		FailTag:          s.FailTag,
		PreventDuplicate: s.PreventDuplicate == nil || *s.PreventDuplicate,
		SkipSKUUpdate:    s.SkipSKUUpdate,
		Throttle:         s.Throttle(),
		GroupWorkers:     s.GroupWorkers,
		ProductWorkers:   s.ProductWorkers,
		Options: validation.Options{
			Sort:         sort,
			Limit:        s.OptionCount,
			PriceCluster: s.PriceCluster,
			Pricing:      &pricing,
		},
	}, nil
}

// ParseMarkets accepts display names or market types.
func ParseMarkets(names []string) ([]catalog.Market, error) {
	if len(names) == 0 {
		return nil, apperr.Configf("at least one market is required")
	}
	out := make([]catalog.Market, 0, len(names))
	for _, n := range names {
		m, ok := catalog.LookupMarket(n)
		if !ok {
			return nil, apperr.Configf("unknown market %q", n)
		}
		out = append(out, m)
	}
	return out, nil
}
