package bulsaja

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"uploader/internal/apperr"
	"uploader/internal/catalog"
	"uploader/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", "at", "rt", logger.Nop())
}

func TestListProductsSendsFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/manage/list/serverside", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "at", r.Header.Get("accesstoken"))
		assert.Equal(t, "rt", r.Header.Get("refreshtoken"))

		var req ListRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0, req.Request.StartRow)
		assert.Equal(t, 10, req.Request.EndRow)
		assert.Equal(t, "store-a", req.Request.FilterModel["marketGroupName"].Filter)
		assert.Equal(t, []string{"0", "1"}, req.Request.FilterModel["status"].Values)

		io.WriteString(w, `{"rowData":[{"ID":"p1","uploadCommonProductName":"의자","uploadedMarkets":"SMARTSTORE"}],"lastRow":1}`)
	})
	c := newTestClient(t, mux)

	rows, total, err := c.ListProducts(context.Background(), ProductFilter{GroupName: "store-a", Statuses: []string{"0", "1"}, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].ID)

	ss, _ := catalog.LookupMarket("스마트스토어")
	assert.True(t, rows[0].UploadedTo(ss))
}

func TestGetProductDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/manage/sourcing-product/p9", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"uploadCommonProductName":"랜턴","uploadSkus":[{"id":"1","text":"white","_origin_price":12}]}`)
	})
	c := newTestClient(t, mux)

	p, err := c.GetProductDetail(context.Background(), "p9")

	require.NoError(t, err)
	assert.Equal(t, "p9", p.ID)
	assert.Equal(t, "랜턴", p.Name)
	require.Len(t, p.SKUs, 1)
	assert.Equal(t, 12.0, p.SKUs[0].Price)
}

func TestNon200IsNetworkError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/manage/sourcing-product/p1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	})
	c := newTestClient(t, mux)

	_, err := c.GetProductDetail(context.Background(), "p1")

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Network))
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestResolveMarketIDCaches(t *testing.T) {
	var groupCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/market/groups/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&groupCalls, 1)
		io.WriteString(w, `[{"id":7,"name":"store-a"},{"id":8,"name":"store-b"}]`)
	})
	mux.HandleFunc("/api/market/group/7/markets", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":101,"type":"SMARTSTORE"},{"id":102,"type":"COUPANG"}]`)
	})
	c := newTestClient(t, mux)

	id, err := c.ResolveMarketID(context.Background(), "store-a", "COUPANG")
	require.NoError(t, err)
	assert.Equal(t, "102", id)

	id, err = c.ResolveMarketID(context.Background(), "store-a", "COUPANG")
	require.NoError(t, err)
	assert.Equal(t, "102", id)
	assert.Equal(t, int32(1), atomic.LoadInt32(&groupCalls))

	_, err = c.ResolveMarketID(context.Background(), "store-a", "ST11")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	_, err = c.ResolveMarketID(context.Background(), "nope", "ST11")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestUploadProduct(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/market/101/upload/", func(w http.ResponseWriter, r *http.Request) {
		var req UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req.ProductID)
		assert.True(t, req.PreventDuplicateUpload)
		assert.Equal(t, "SMARTSTORE", req.TargetMarket)
		io.WriteString(w, `{"code":0,"message":"이미 중복 등록된 상품입니다"}`)
	})
	c := newTestClient(t, mux)

	resp, err := c.UploadProduct(context.Background(), "p1", "101", "SMARTSTORE", true)

	require.NoError(t, err)
	assert.Equal(t, UploadDuplicate, ClassifyUpload(resp))
}

func TestUpdateUploadFieldsKeepsVendorKeys(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sourcing/uploadfields/p1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string][]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body["uploadSkus"], 1)
		assert.Equal(t, "keep", body["uploadSkus"][0]["vendorOnly"])
		assert.Equal(t, true, body["uploadSkus"][0]["main_product"])
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux)

	var s catalog.SKU
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","price":3,"vendorOnly":"keep"}`), &s))
	s.MainProduct = true

	require.NoError(t, c.UpdateUploadFields(context.Background(), "p1", []catalog.SKU{s}))
}

func TestApplyTagCreatesMissingTagOnce(t *testing.T) {
	var created, applied int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/manage/groups", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt32(&created, 1)
			return
		}
		io.WriteString(w, `[{"name":"기존태그"}]`)
	})
	mux.HandleFunc("/api/sourcing/bulk-update-groups", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&applied, 1)
		var req TagRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "업로드실패", req.GroupName)
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.ApplyTag(context.Background(), []string{"p1"}, "업로드실패"))
	require.NoError(t, c.ApplyTag(context.Background(), []string{"p2"}, "업로드실패"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&created))
	assert.Equal(t, int32(2), atomic.LoadInt32(&applied))
}

func TestClassifyUpload(t *testing.T) {
	cases := []struct {
		msg  string
		want UploadOutcome
	}{
		{"", UploadFailed},
		{"1일 500개 등록제한 초과", UploadQuotaLimit},
		{"최대 5,000개까지 등록 가능합니다", UploadMarketLimit},
		{"Product already uploaded", UploadDuplicate},
		{"카테고리 오류", UploadFailed},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyUpload(&UploadResponse{Code: 0, Message: c.msg}), c.msg)
	}
	assert.Equal(t, UploadSuccess, ClassifyUpload(&UploadResponse{Code: 1}))
	assert.Equal(t, UploadFailed, ClassifyUpload(nil))
}
