package report

import (
	"path/filepath"
	"testing"

	"uploader/internal/catalog"
	"uploader/internal/options"
	"uploader/internal/safety"
	"uploader/internal/worker/processors/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func decision() validation.Decision {
	main := catalog.SKU{ID: "1", Name: "Red", Price: 15000, MainProduct: true}
	return validation.Decision{
		Verdict:  safety.Verdict{Status: safety.StatusSafe, Tier: safety.TierNormal},
		Total:    3,
		Valid:    []catalog.SKU{main, {ID: "2", Name: "Blue", Price: 15000}},
		Bait:     []catalog.SKU{{ID: "0", Name: "Red, sample photo only", BaitKeyword: "sample"}},
		Selected: []catalog.SKU{main},
		Main:     main,
		Method:   options.MatchLowestPrice,
		Ready:    true,
	}
}

func TestCollectorAndWorkbook(t *testing.T) {
	var c Collector
	c.Observe("store-b", &catalog.Product{Name: "의자"}, decision())
	c.Observe("store-a", &catalog.Product{Name: "랜턴"}, decision())

	rows := c.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "store-a", rows[0].Group)
	assert.Equal(t, []string{"sample"}, rows[0].Keywords)

	path := filepath.Join(t.TempDir(), "sim.xlsx")
	require.NoError(t, WriteSimulation(path, rows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, header, got[0])
	assert.Equal(t, "랜턴", got[1][0])
	assert.Equal(t, safety.LabelSafe, got[1][1])
	assert.Equal(t, "3", got[1][4])
	assert.Equal(t, "store-a", got[1][12])
}

func TestRejectedRowCarriesReason(t *testing.T) {
	d := validation.Decision{
		Verdict: safety.Verdict{Status: safety.StatusUnsafe, Reason: "나이키"},
		Code:    validation.CodeUnsafe,
		Reason:  "나이키",
	}
	r := NewRow("g", &catalog.Product{Name: "나이키 신발"}, d)

	assert.Equal(t, safety.LabelUnsafe, r.Safety)
	assert.Equal(t, "나이키", r.Reason)
	assert.Empty(t, r.MainOption)
}
