// Package sheets reads the operator's account workbook and writes run status
// back into it.
package sheets

import (
	"strings"
	"time"

	"uploader/internal/apperr"

	"github.com/xuri/excelize/v2"
)

const (
	ColumnResult    = "결과"
	ColumnUpdatedAt = "updated_at"

	headerScanRows = 10
)

var (
	groupHeaders   = []string{"group", "그룹명", "마켓그룹"}
	activeHeaders  = []string{"active", "사용", "사용여부"}
	sessionHeaders = []string{"session", "세션"}
	marketHeaders  = []string{"markets", "마켓"}

	truthy = map[string]bool{"y": true, "yes": true, "true": true, "1": true, "o": true, "사용": true, "✓": true}
)

// Account is one usable row of the accounts sheet.
type Account struct {
	Row     int // 1-based sheet row
	Group   string
	Session string
	Markets []string
	Values  map[string]string
}

// ReadAccounts returns the active rows of sheet (the first sheet when empty).
// The header row is located by its group column. Rows with an active column
// that is not ticked are left out.
func ReadAccounts(path, sheet string) ([]Account, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.Config, err, "open accounts sheet "+path)
	}
	defer f.Close()

	sheet, err = pickSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Wrap(apperr.Config, err, "read sheet "+sheet)
	}

	hdr, cols, err := findHeader(rows)
	if err != nil {
		return nil, err
	}
	groupCol := lookup(cols, groupHeaders)
	activeCol := lookup(cols, activeHeaders)
	sessionCol := lookup(cols, sessionHeaders)
	marketCol := lookup(cols, marketHeaders)

	var out []Account
	for i := hdr + 1; i < len(rows); i++ {
		row := rows[i]
		group := cell(row, groupCol)
		if group == "" {
			continue
		}
		if activeCol >= 0 && !truthy[strings.ToLower(cell(row, activeCol))] {
			continue
		}

		acc := Account{
			Row:     i + 1,
			Group:   group,
			Session: cell(row, sessionCol),
			Values:  map[string]string{},
		}
		if m := cell(row, marketCol); m != "" {
			for _, part := range strings.Split(m, ",") {
				if part = strings.TrimSpace(part); part != "" {
					acc.Markets = append(acc.Markets, part)
				}
			}
		}
		for name, idx := range cols {
			acc.Values[name] = cell(row, idx)
		}
		out = append(out, acc)
	}
	return out, nil
}

// WriteStatus fills the 결과 and updated_at cells of row, adding the columns
// to the header when the sheet has none.
func WriteStatus(path, sheet string, row int, result string, at time.Time) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return apperr.Wrap(apperr.Config, err, "open accounts sheet "+path)
	}
	defer f.Close()

	sheet, err = pickSheet(f, sheet)
	if err != nil {
		return err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return apperr.Wrap(apperr.Config, err, "read sheet "+sheet)
	}
	hdr, cols, err := findHeader(rows)
	if err != nil {
		return err
	}

	width := len(rows[hdr])
	column := func(name string) (int, error) {
		if idx, ok := cols[strings.ToLower(name)]; ok {
			return idx, nil
		}
		idx := width
		width++
		ref, err := excelize.CoordinatesToCellName(idx+1, hdr+1)
		if err != nil {
			return 0, err
		}
		return idx, f.SetCellValue(sheet, ref, name)
	}

	resultCol, err := column(ColumnResult)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "add result column")
	}
	updatedCol, err := column(ColumnUpdatedAt)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "add updated_at column")
	}

	for col, value := range map[int]string{resultCol: result, updatedCol: at.Format("2006-01-02 15:04:05")} {
		ref, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return apperr.Wrap(apperr.Invalid, err, "status cell")
		}
		if err := f.SetCellValue(sheet, ref, value); err != nil {
			return apperr.Wrap(apperr.Internal, err, "write status")
		}
	}

	if err := f.Save(); err != nil {
		return apperr.Wrap(apperr.Internal, err, "save accounts sheet")
	}
	return nil
}

func pickSheet(f *excelize.File, sheet string) (string, error) {
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", apperr.Configf("workbook has no sheets")
	}
	if sheet == "" {
		return list[0], nil
	}
	for _, s := range list {
		if s == sheet {
			return s, nil
		}
	}
	return "", apperr.Configf("sheet %q not found", sheet)
}

// findHeader returns the header row index and a lowercased name → column
// index map.
func findHeader(rows [][]string) (int, map[string]int, error) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		cols := map[string]int{}
		for j, name := range rows[i] {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				if _, dup := cols[name]; !dup {
					cols[name] = j
				}
			}
		}
		if lookup(cols, groupHeaders) >= 0 {
			return i, cols, nil
		}
	}
	return 0, nil, apperr.Configf("no header row with a group column")
}

func lookup(cols map[string]int, names []string) int {
	for _, n := range names {
		if idx, ok := cols[n]; ok {
			return idx
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
