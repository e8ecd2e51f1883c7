package bulsaja

import (
	"strings"
)

// ProductFilter selects products from the grid.
type ProductFilter struct {
	GroupName  string
	Statuses   []string
	ExcludeTag string
	Offset     int
	Limit      int
}

func (f ProductFilter) Request() ListRequest {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	filters := map[string]FilterModel{}
	if f.GroupName != "" {
		filters["marketGroupName"] = FilterModel{FilterType: "text", Type: "equals", Filter: f.GroupName}
	}
	switch len(f.Statuses) {
	case 0:
	case 1:
		filters["status"] = FilterModel{FilterType: "text", Type: "equals", Filter: f.Statuses[0]}
	default:
		filters["status"] = FilterModel{FilterType: "set", Values: f.Statuses}
	}
	if f.ExcludeTag != "" {
		filters["groupFile"] = FilterModel{FilterType: "text", Type: "notContains", Filter: f.ExcludeTag}
	}

	return ListRequest{Request: GridRequest{
		StartRow:    f.Offset,
		EndRow:      f.Offset + limit,
		SortModel:   []SortModel{},
		FilterModel: filters,
	}}
}

// UploadOutcome is how the orchestrator should treat an upload reply.
type UploadOutcome string

const (
	UploadSuccess     UploadOutcome = "success"
	UploadDuplicate   UploadOutcome = "duplicate"
	UploadQuotaLimit  UploadOutcome = "quota_limit"
	UploadMarketLimit UploadOutcome = "market_limit"
	UploadFailed      UploadOutcome = "failed"
)

var (
	quotaMarkers     = []string{"500개", "등록제한"}
	marketMarkers    = []string{"5,000개", "5000개"}
	duplicateMarkers = []string{"중복", "duplicate", "already"}
)

// ClassifyUpload reads the vendor's reply. code 1 is success; limit and
// duplicate replies are recognised by their message text.
func ClassifyUpload(resp *UploadResponse) UploadOutcome {
	if resp == nil {
		return UploadFailed
	}
	if resp.Code == 1 {
		return UploadSuccess
	}

	msg := strings.ToLower(resp.Message)
	switch {
	case containsAny(msg, quotaMarkers):
		return UploadQuotaLimit
	case containsAny(msg, marketMarkers):
		return UploadMarketLimit
	case containsAny(msg, duplicateMarkers):
		return UploadDuplicate
	}
	return UploadFailed
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
