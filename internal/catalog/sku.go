package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Keys the vendor has used for the origin (source currency) price, in lookup order.
var priceFields = []string{
	"_origin_price", "originPrice", "origin_price", "_originPrice",
	"price", "skuPrice", "salePrice", "originalPrice",
}

// SKU is one purchasable option variant. Vendor keys this package does not
// model are kept in Extra and written back unchanged.
type SKU struct {
	ID          string
	Text        string
	TextKo      string
	Name        string
	Price       float64
	PriceField  string
	Image       string
	Stock       int
	Exclude     bool
	PropValIDs  string
	MainProduct bool
	BaitKeyword string

	// Filled by pricing, zero until then.
	OriginPriceKRW int64
	SalePriceKRW   int64

	Extra map[string]json.RawMessage
}

// Label joins the fields keyword matching runs over.
func (s SKU) Label() string {
	parts := make([]string, 0, 3)
	for _, v := range []string{s.Name, s.Text, s.TextKo} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// DisplayName prefers the translated label.
func (s SKU) DisplayName() string {
	switch {
	case s.TextKo != "":
		return s.TextKo
	case s.Text != "":
		return s.Text
	}
	return s.Name
}

func (s *SKU) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = SKU{Extra: raw}
	s.ID = rawString(raw["id"])
	s.Text = rawString(raw["text"])
	s.TextKo = rawString(raw["text_ko"])
	s.Name = rawString(raw["name"])
	s.PropValIDs = rawString(raw["prop_val_ids"])
	s.BaitKeyword = rawString(raw["_bait_keyword"])
	s.MainProduct = rawBool(raw["main_product"])
	s.Exclude = rawBool(raw["exclude"])
	s.Stock = int(rawFloat(raw["stock"]))

	for _, key := range []string{"urlRef", "image", "optionImage"} {
		if v := rawString(raw[key]); v != "" {
			s.Image = v
			break
		}
	}

	s.Price, s.PriceField = detectPrice(raw)
	return nil
}

func (s SKU) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Extra)+8)
	for k, v := range s.Extra {
		out[k] = v
	}

	out["id"] = s.ID
	setString(out, "text", s.Text)
	setString(out, "text_ko", s.TextKo)
	setString(out, "name", s.Name)
	out["main_product"] = s.MainProduct
	if _, ok := s.Extra["exclude"]; ok || s.Exclude {
		out["exclude"] = s.Exclude
	}
	if s.BaitKeyword != "" {
		out["_bait_keyword"] = s.BaitKeyword
	}
	if s.Image != "" && s.Extra["urlRef"] == nil && s.Extra["image"] == nil && s.Extra["optionImage"] == nil {
		out["urlRef"] = s.Image
	}

	field := s.PriceField
	if field == "" {
		field = "price"
	}
	out[field] = s.Price

	if s.OriginPriceKRW > 0 {
		out["origin_price"] = s.OriginPriceKRW
	}
	if s.SalePriceKRW > 0 {
		out["sale_price"] = s.SalePriceKRW
	}
	return json.Marshal(out)
}

func setString(out map[string]interface{}, key, value string) {
	if value != "" {
		out[key] = value
	}
}

// detectPrice returns the first positive known price field, then any key
// that looks like a price.
func detectPrice(raw map[string]json.RawMessage) (float64, string) {
	for _, key := range priceFields {
		if v, ok := raw[key]; ok {
			if p := rawFloat(v); p > 0 {
				return p, key
			}
		}
	}
	for key, v := range raw {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "price") && !strings.Contains(lower, "origin") {
			continue
		}
		if p := rawFloat(v); p > 0 {
			return p, key
		}
	}
	return 0, ""
}

func rawString(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func rawFloat(v json.RawMessage) float64 {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
		return f
	}
	return 0
}

func rawBool(v json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	return rawFloat(v) != 0
}
