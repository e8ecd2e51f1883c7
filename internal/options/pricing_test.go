package options

import (
	"testing"

	"uploader/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPricing = PriceSettings{
	ExchangeRate: 210,
	CardFeeRate:  3.3,
	MarginRate:   25,
	MarginFixed:  15000,
	RoundUnit:    100,
}

func TestSalePrice(t *testing.T) {
	// 30*210 = 6300, *1.283 = 8082.9, +15000 = 23082.9
	assert.Equal(t, int64(23100), testPricing.SalePrice(30, 0))
	assert.Equal(t, int64(26100), testPricing.SalePrice(30, 3000))
	assert.Equal(t, int64(6300), testPricing.OriginKRW(30))

	floor := testPricing
	floor.MinPrice = 30000
	assert.Equal(t, int64(30000), floor.SalePrice(30, 0))

	exact := testPricing
	exact.RoundUnit = 0
	assert.Equal(t, int64(23083), exact.SalePrice(30, 0))
}

func TestApplyPriceRange(t *testing.T) {
	ps := testPricing
	ps.MaxPrice = 25000
	skus := []catalog.SKU{{ID: "a", Price: 30}, {ID: "b", Price: 40}, {ID: "c", Price: 20}}

	kept, excluded := ApplyPriceRange(skus, ps, 0)

	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "c", kept[1].ID)
	assert.Equal(t, int64(23100), kept[0].SalePriceKRW)
	assert.Equal(t, int64(6300), kept[0].OriginPriceKRW)
	require.Len(t, excluded, 1)
	assert.Equal(t, int64(25800), excluded[0].SalePriceKRW)
	assert.Zero(t, skus[0].SalePriceKRW)
}
