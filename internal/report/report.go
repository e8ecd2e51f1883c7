// Package report writes simulation results to an xlsx workbook.
package report

import (
	"sort"
	"strings"
	"sync"

	"uploader/internal/apperr"
	"uploader/internal/catalog"
	"uploader/internal/worker/processors/validation"

	"github.com/xuri/excelize/v2"
)

const sheetName = "시뮬레이션"

var header = []string{
	"상품명", "안전여부", "위험사유", "검수레벨",
	"전체옵션", "유효옵션", "최종옵션", "미끼옵션", "미끼옵션목록", "탐지키워드",
	"대표옵션", "선택방식", "그룹명",
}

// Row is one product as the operator reviews it.
type Row struct {
	ProductName  string
	Safety       string
	Reason       string
	Tier         string
	TotalOptions int
	ValidOptions int
	FinalOptions int
	BaitOptions  int
	BaitNames    []string
	Keywords     []string
	MainOption   string
	Method       string
	Group        string
}

func NewRow(group string, p *catalog.Product, d validation.Decision) Row {
	r := Row{
		ProductName:  p.Name,
		Safety:       d.Verdict.Label(),
		Tier:         string(d.Verdict.Tier),
		TotalOptions: d.Total,
		ValidOptions: len(d.Valid),
		FinalOptions: len(d.Selected),
		BaitOptions:  len(d.Bait),
		Method:       d.Method.Label(),
		Group:        group,
	}
	if !d.Ready {
		r.Reason = d.Reason
	}
	if d.Ready {
		r.MainOption = d.Main.DisplayName()
	}

	seen := map[string]bool{}
	for _, s := range d.Bait {
		r.BaitNames = append(r.BaitNames, s.DisplayName())
		if s.BaitKeyword != "" && !seen[s.BaitKeyword] {
			seen[s.BaitKeyword] = true
			r.Keywords = append(r.Keywords, s.BaitKeyword)
		}
	}
	sort.Strings(r.Keywords)
	return r
}

func (r Row) values() []interface{} {
	return []interface{}{
		r.ProductName, r.Safety, r.Reason, r.Tier,
		r.TotalOptions, r.ValidOptions, r.FinalOptions, r.BaitOptions,
		strings.Join(r.BaitNames, ", "), strings.Join(r.Keywords, ", "),
		r.MainOption, r.Method, r.Group,
	}
}

// Collector gathers rows from concurrent workers.
type Collector struct {
	mu   sync.Mutex
	rows []Row
}

// Observe has the orchestrator.DecisionFunc signature.
func (c *Collector) Observe(group string, p *catalog.Product, d validation.Decision) {
	row := NewRow(group, p, d)
	c.mu.Lock()
	c.rows = append(c.rows, row)
	c.mu.Unlock()
}

// Rows returns the collected rows ordered by group then product name.
func (c *Collector) Rows() []Row {
	c.mu.Lock()
	out := append([]Row(nil), c.rows...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

func WriteSimulation(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return apperr.Wrap(apperr.Internal, err, "rename sheet")
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return apperr.Wrap(apperr.Internal, err, "write header")
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperr.Wrap(apperr.Internal, err, "cell name")
		}
		values := r.values()
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return apperr.Wrap(apperr.Internal, err, "write row")
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return apperr.Wrap(apperr.Internal, err, "freeze header")
	}

	if err := f.SaveAs(path); err != nil {
		return apperr.Wrap(apperr.Internal, err, "save report "+path)
	}
	return nil
}
