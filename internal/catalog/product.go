package catalog

import (
	"encoding/json"
	"strings"
)

// Product is the vendor's sourcing product detail.
type Product struct {
	ID                 string
	Name               string
	Category           string
	Thumbnails         []string
	SKUs               []SKU
	UploadedMarkets    string
	UploadedSuccessURL map[string]string
	Tags               []string
	DeliveryFee        float64
	GroupName          string

	Raw map[string]json.RawMessage
}

type categoryRef struct {
	Name string `json:"name"`
}

type uploadCategory struct {
	SS  *categoryRef `json:"ss_category"`
	ESM *categoryRef `json:"esm_category"`
	EST *categoryRef `json:"est_category"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Product{Raw: raw}
	for _, key := range []string{"ID", "id", "sourcingId", "productId"} {
		if v := rawString(raw[key]); v != "" {
			p.ID = v
			break
		}
	}
	for _, key := range []string{"uploadCommonProductName", "productName", "name"} {
		if v := rawString(raw[key]); v != "" {
			p.Name = v
			break
		}
	}

	if v, ok := raw["uploadSkus"]; ok {
		if err := json.Unmarshal(v, &p.SKUs); err != nil {
			return err
		}
	}
	if v, ok := raw["uploadThumbnails"]; ok {
		_ = json.Unmarshal(v, &p.Thumbnails)
	}
	if v, ok := raw["uploadCommonTags"]; ok {
		_ = json.Unmarshal(v, &p.Tags)
	}
	if v, ok := raw["uploadedSuccessUrl"]; ok {
		p.UploadedSuccessURL = map[string]string{}
		var urls map[string]json.RawMessage
		if json.Unmarshal(v, &urls) == nil {
			for k, u := range urls {
				if s := rawString(u); s != "" {
					p.UploadedSuccessURL[k] = s
				}
			}
		}
	}

	p.UploadedMarkets = uploadedMarkets(raw["uploadedMarkets"])
	p.DeliveryFee = rawFloat(raw["uploadOverseaDeliveryFee"])
	p.GroupName = rawString(raw["marketGroupName"])

	if v, ok := raw["uploadCategory"]; ok {
		var c uploadCategory
		if json.Unmarshal(v, &c) == nil {
			for _, ref := range []*categoryRef{c.SS, c.ESM, c.EST} {
				if ref != nil && ref.Name != "" {
					p.Category = ref.Name
					break
				}
			}
		}
	}
	return nil
}

// uploadedMarkets accepts the vendor's comma string as well as a list.
func uploadedMarkets(v json.RawMessage) string {
	if s := rawString(v); s != "" {
		return s
	}
	var list []string
	if json.Unmarshal(v, &list) == nil {
		return strings.Join(list, ",")
	}
	return ""
}

// UploadedTo reports whether the vendor already holds an upload record for m.
func (p *Product) UploadedTo(m Market) bool {
	if m.Type != "" && strings.Contains(strings.ToUpper(p.UploadedMarkets), strings.ToUpper(m.Type)) {
		return true
	}
	return m.SuccessKey != "" && p.UploadedSuccessURL[m.SuccessKey] != ""
}

// SKUPayload renders the SKU list for an upload-fields update.
func (p *Product) SKUPayload() (json.RawMessage, error) {
	return json.Marshal(p.SKUs)
}
