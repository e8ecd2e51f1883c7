package bulsaja

import (
	"encoding/json"

	"uploader/internal/catalog"
)

// ListRequest is the grid query the product list endpoint expects.
type ListRequest struct {
	Request GridRequest `json:"request"`
}

type GridRequest struct {
	StartRow    int                    `json:"startRow"`
	EndRow      int                    `json:"endRow"`
	SortModel   []SortModel            `json:"sortModel"`
	FilterModel map[string]FilterModel `json:"filterModel"`
}

type SortModel struct {
	ColID string `json:"colId"`
	Sort  string `json:"sort"`
}

type FilterModel struct {
	FilterType string   `json:"filterType"`
	Type       string   `json:"type,omitempty"`
	Filter     string   `json:"filter,omitempty"`
	Values     []string `json:"values,omitempty"`
}

type ListResponse struct {
	RowData []ProductSummary `json:"rowData"`
	LastRow int              `json:"lastRow"`
}

// ProductSummary is one row of the product grid.
type ProductSummary struct {
	ID                 string            `json:"ID"`
	Name               string            `json:"uploadCommonProductName"`
	GroupName          string            `json:"marketGroupName"`
	Status             json.RawMessage   `json:"status"`
	UploadedMarkets    string            `json:"uploadedMarkets"`
	UploadedSuccessURL map[string]string `json:"uploadedSuccessUrl"`
	Category           *struct {
		SS  *struct{ Name string } `json:"ss_category"`
		ESM *struct{ Name string } `json:"esm_category"`
	} `json:"uploadCategory"`
}

// CategoryName mirrors catalog.Product's category resolution for list rows.
func (s ProductSummary) CategoryName() string {
	if s.Category == nil {
		return ""
	}
	if s.Category.SS != nil && s.Category.SS.Name != "" {
		return s.Category.SS.Name
	}
	if s.Category.ESM != nil {
		return s.Category.ESM.Name
	}
	return ""
}

// UploadedTo applies the same duplicate rule as catalog.Product.
func (s ProductSummary) UploadedTo(m catalog.Market) bool {
	p := catalog.Product{UploadedMarkets: s.UploadedMarkets, UploadedSuccessURL: s.UploadedSuccessURL}
	return p.UploadedTo(m)
}

type MarketGroup struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type GroupMarket struct {
	ID   json.Number `json:"id"`
	Type string      `json:"type"`
}

type UploadRequest struct {
	ProductID              string `json:"productId"`
	PreventDuplicateUpload bool   `json:"preventDuplicateUpload"`
	RemoveDuplicateWords   bool   `json:"removeDuplicateWords"`
	TargetMarket           string `json:"targetMarket"`
}

type UploadResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type UploadFieldsRequest struct {
	UploadSkus []catalog.SKU `json:"uploadSkus"`
}

type TagRequest struct {
	ProductIDs []string `json:"productIds"`
	GroupName  string   `json:"groupName"`
}

type tagGroup struct {
	Name string `json:"name"`
}
