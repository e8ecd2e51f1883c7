package bulsaja

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"uploader/internal/apperr"
	"uploader/internal/catalog"
	"uploader/internal/logger"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.bulsaja.com/api"

// Client talks to the sourcing vendor's API. A Client caches lookups and is
// meant to be owned by one worker.
type Client struct {
	http   *resty.Client
	logger *logger.Logger

	mu        sync.Mutex
	marketIDs map[string]string
	tags      map[string]bool
}

func NewClient(baseURL, accessToken, refreshToken string, logger *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("accesstoken", accessToken).
		SetHeader("refreshtoken", refreshToken)

	return &Client{
		http:      http,
		logger:    logger,
		marketIDs: map[string]string{},
		tags:      map[string]bool{},
	}
}

// ListProducts returns one page of the product grid and the total row count.
func (c *Client) ListProducts(ctx context.Context, f ProductFilter) ([]ProductSummary, int, error) {
	var out ListResponse
	if err := c.do(ctx, resty.MethodPost, "/manage/list/serverside", f.Request(), &out); err != nil {
		return nil, 0, err
	}
	return out.RowData, out.LastRow, nil
}

// GetProductDetail fetches the full sourcing product including its SKUs.
func (c *Client) GetProductDetail(ctx context.Context, productID string) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, resty.MethodGet, "/manage/sourcing-product/"+productID, nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = productID
	}
	return &p, nil
}

func (c *Client) MarketGroups(ctx context.Context) ([]MarketGroup, error) {
	var groups []MarketGroup
	if err := c.do(ctx, resty.MethodPost, "/market/groups/", map[string]interface{}{}, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) GroupMarkets(ctx context.Context, groupID string) ([]GroupMarket, error) {
	var markets []GroupMarket
	if err := c.do(ctx, resty.MethodGet, fmt.Sprintf("/market/group/%s/markets", groupID), nil, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// ResolveMarketID finds the id of the marketType storefront inside a group.
func (c *Client) ResolveMarketID(ctx context.Context, groupName, marketType string) (string, error) {
	key := groupName + "\x00" + marketType
	c.mu.Lock()
	id, ok := c.marketIDs[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	groups, err := c.MarketGroups(ctx)
	if err != nil {
		return "", err
	}
	var groupID string
	for _, g := range groups {
		if g.Name == groupName {
			groupID = g.ID.String()
			break
		}
	}
	if groupID == "" {
		return "", apperr.New(apperr.NotFound, fmt.Sprintf("market group %q not found", groupName))
	}

	markets, err := c.GroupMarkets(ctx, groupID)
	if err != nil {
		return "", err
	}
	for _, m := range markets {
		if m.Type == marketType {
			id = m.ID.String()
			c.mu.Lock()
			c.marketIDs[key] = id
			c.mu.Unlock()
			return id, nil
		}
	}
	return "", apperr.New(apperr.NotFound, fmt.Sprintf("group %q has no %s market", groupName, marketType))
}

// UpdateUploadFields writes the option list the next upload will send.
func (c *Client) UpdateUploadFields(ctx context.Context, productID string, skus []catalog.SKU) error {
	return c.do(ctx, resty.MethodPut, "/sourcing/uploadfields/"+productID, UploadFieldsRequest{UploadSkus: skus}, nil)
}

// UploadProduct asks the vendor to list productID on one market. The reply
// is returned as is; ClassifyUpload interprets it.
func (c *Client) UploadProduct(ctx context.Context, productID, marketID, marketType string, preventDuplicate bool) (*UploadResponse, error) {
	req := UploadRequest{
		ProductID:              productID,
		PreventDuplicateUpload: preventDuplicate,
		RemoveDuplicateWords:   true,
		TargetMarket:           marketType,
	}
	var out UploadResponse
	if err := c.do(ctx, resty.MethodPost, fmt.Sprintf("/market/%s/upload/", marketID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyTag attaches tag to the products, creating the tag first if needed.
func (c *Client) ApplyTag(ctx context.Context, productIDs []string, tag string) error {
	if len(productIDs) == 0 || tag == "" {
		return nil
	}
	if err := c.ensureTag(ctx, tag); err != nil {
		return err
	}
	return c.do(ctx, resty.MethodPost, "/sourcing/bulk-update-groups", TagRequest{ProductIDs: productIDs, GroupName: tag}, nil)
}

func (c *Client) ensureTag(ctx context.Context, tag string) error {
	c.mu.Lock()
	known := c.tags[tag]
	c.mu.Unlock()
	if known {
		return nil
	}

	var existing []tagGroup
	if err := c.do(ctx, resty.MethodGet, "/manage/groups", nil, &existing); err != nil {
		return err
	}
	found := false
	for _, g := range existing {
		if g.Name == tag {
			found = true
			break
		}
	}
	if !found {
		if err := c.do(ctx, resty.MethodPost, "/manage/groups", tagGroup{Name: tag}, nil); err != nil {
			return err
		}
		c.logger.Info("created tag %s", tag)
	}

	c.mu.Lock()
	c.tags[tag] = true
	c.mu.Unlock()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return apperr.Networkf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		return apperr.Networkf(nil, "API request failed: %d - %s", resp.StatusCode(), excerpt(resp.String()))
	}
	if result != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return apperr.Wrap(apperr.Network, err, fmt.Sprintf("decode %s %s", method, path))
		}
	}
	return nil
}

func excerpt(s string) string {
	const max = 300
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
