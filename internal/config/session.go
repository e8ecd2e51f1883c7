package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"uploader/internal/apperr"
	"uploader/internal/options"
)

// Session is one operator run as stored in the per-session JSON file.
type Session struct {
	AccessToken      string   `json:"access_token"`
	RefreshToken     string   `json:"refresh_token"`
	UploadCount      int      `json:"upload_count"`
	OptionCount      int      `json:"option_count"`
	OptionSort       string   `json:"option_sort"`
	StatusFilters    []string `json:"status_filters"`
	MarketName       string   `json:"market_name"`
	Markets          []string `json:"markets"`
	SkipSKUUpdate    bool     `json:"skip_sku_update"`
	PreventDuplicate *bool    `json:"prevent_duplicate"`
	ExcludeTag       string   `json:"exclude_tag"`
	FailTag          string   `json:"fail_tag"`
	ThrottleMS       int      `json:"throttle_ms"`
	GroupWorkers     int      `json:"group_workers"`
	ProductWorkers   int      `json:"product_workers"`
	PriceCluster     bool     `json:"price_cluster"`
	Pricing          Pricing  `json:"pricing"`
}

type Pricing struct {
	ExchangeRate float64 `json:"exchange_rate"`
	CardFeeRate  float64 `json:"card_fee_rate"`
	MarginRate   float64 `json:"margin_rate"`
	MarginFixed  float64 `json:"margin_fixed"`
	RoundUnit    int64   `json:"round_unit"`
	MinPrice     int64   `json:"min_price"`
	MaxPrice     int64   `json:"max_price"`
}

// LoadSession reads path and fills defaults for omitted keys.
func LoadSession(path string) (*Session, error) {
	if path == "" {
		return nil, apperr.Configf("session config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Configf("session config %s not found", path)
		}
		return nil, apperr.Wrap(apperr.Config, err, "read session config")
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperr.Wrap(apperr.Config, err, "parse session config "+path)
	}
	s.applyDefaults()
	return &s, nil
}

func (s *Session) applyDefaults() {
	if s.UploadCount == 0 {
		s.UploadCount = 10
	}
	if s.OptionCount == 0 {
		s.OptionCount = 5
	}
	if s.OptionSort == "" {
		s.OptionSort = "price_asc"
	}
	if len(s.StatusFilters) == 0 {
		s.StatusFilters = []string{"0", "1", "2"}
	}
	if len(s.Markets) == 0 && s.MarketName != "" {
		s.Markets = []string{s.MarketName}
	}
	if s.PreventDuplicate == nil {
		on := true
		s.PreventDuplicate = &on
	}
	if s.FailTag == "" {
		s.FailTag = "업로드실패"
	}
	if s.ThrottleMS == 0 {
		s.ThrottleMS = 1500
	}
	if s.GroupWorkers <= 0 {
		s.GroupWorkers = 1
	}
	if s.ProductWorkers <= 0 {
		s.ProductWorkers = 1
	}

	p := &s.Pricing
	if p.ExchangeRate == 0 {
		p.ExchangeRate = 210
	}
	if p.CardFeeRate == 0 {
		p.CardFeeRate = 3.3
	}
	if p.MarginRate == 0 {
		p.MarginRate = 25
	}
	if p.MarginFixed == 0 {
		p.MarginFixed = 15000
	}
	if p.RoundUnit == 0 {
		p.RoundUnit = 100
	}
}

func (s *Session) Validate() error {
	if s.AccessToken == "" || s.RefreshToken == "" {
		return apperr.Configf("access_token and refresh_token are required")
	}
	if _, err := options.ParseSortMode(s.OptionSort); err != nil {
		return apperr.Wrap(apperr.Config, err, "option_sort")
	}
	if s.UploadCount < 0 || s.OptionCount < 0 {
		return apperr.Configf("upload_count and option_count must not be negative")
	}
	return nil
}

func (s *Session) Throttle() time.Duration {
	if s.ThrottleMS < 0 {
		return 0
	}
	return time.Duration(s.ThrottleMS) * time.Millisecond
}
