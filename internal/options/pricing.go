package options

import (
	"uploader/internal/catalog"

	"github.com/shopspring/decimal"
)

// PriceSettings converts a source-currency price into a KRW sale price.
// Rates are percentages.
type PriceSettings struct {
	ExchangeRate float64
	CardFeeRate  float64
	MarginRate   float64
	MarginFixed  float64
	RoundUnit    int64
	// MinPrice is a floor for the sale price, MaxPrice excludes the SKU.
	MinPrice int64
	MaxPrice int64
}

var hundred = decimal.NewFromInt(100)

// OriginKRW is the origin price converted and rounded up to RoundUnit.
func (ps PriceSettings) OriginKRW(origin float64) int64 {
	krw := decimal.NewFromFloat(origin).Mul(decimal.NewFromFloat(ps.ExchangeRate))
	return ps.roundUp(krw)
}

// SalePrice is ceil((krw*(1+card%+margin%) + fixed + delivery) / unit) * unit,
// raised to MinPrice when set.
func (ps PriceSettings) SalePrice(origin, deliveryFee float64) int64 {
	krw := decimal.NewFromFloat(origin).Mul(decimal.NewFromFloat(ps.ExchangeRate))
	rate := decimal.NewFromFloat(ps.CardFeeRate).Add(decimal.NewFromFloat(ps.MarginRate)).Div(hundred)
	total := krw.Mul(decimal.NewFromInt(1).Add(rate)).
		Add(decimal.NewFromFloat(ps.MarginFixed)).
		Add(decimal.NewFromFloat(deliveryFee))

	price := ps.roundUp(total)
	if ps.MinPrice > 0 && price < ps.MinPrice {
		price = ps.MinPrice
	}
	return price
}

func (ps PriceSettings) roundUp(v decimal.Decimal) int64 {
	unit := ps.RoundUnit
	if unit <= 0 {
		unit = 1
	}
	u := decimal.NewFromInt(unit)
	return v.Div(u).Ceil().Mul(u).IntPart()
}

// ApplyPriceRange prices every SKU and moves those whose sale price exceeds
// MaxPrice into excluded. Order is preserved in both outputs.
func ApplyPriceRange(skus []catalog.SKU, ps PriceSettings, deliveryFee float64) (kept, excluded []catalog.SKU) {
	kept = make([]catalog.SKU, 0, len(skus))
	for _, s := range skus {
		s.OriginPriceKRW = ps.OriginKRW(s.Price)
		s.SalePriceKRW = ps.SalePrice(s.Price, deliveryFee)
		if ps.MaxPrice > 0 && s.SalePriceKRW > ps.MaxPrice {
			excluded = append(excluded, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, excluded
}
