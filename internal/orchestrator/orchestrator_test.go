package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"uploader/internal/apperr"
	"uploader/internal/catalog"
	"uploader/internal/config"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/models"
	"uploader/internal/options"
	"uploader/internal/quota"
	"uploader/internal/safety"
	"uploader/internal/services/bulsaja"
	"uploader/internal/worker/processors/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVendor struct {
	mu       sync.Mutex
	rows     map[string][]bulsaja.ProductSummary
	details  map[string]*catalog.Product
	replies  map[string]*bulsaja.UploadResponse // by product id
	failIDs  map[string]bool
	uploads  []string
	tagged   []string
	clients  int
	onUpload func()
}

func newFakeVendor() *fakeVendor {
	return &fakeVendor{
		rows:    map[string][]bulsaja.ProductSummary{},
		details: map[string]*catalog.Product{},
		replies: map[string]*bulsaja.UploadResponse{},
		failIDs: map[string]bool{},
	}
}

func (f *fakeVendor) factory() VendorAPI {
	f.mu.Lock()
	f.clients++
	f.mu.Unlock()
	return f
}

func (f *fakeVendor) add(group, id, name string, uploaded string) {
	f.rows[group] = append(f.rows[group], bulsaja.ProductSummary{ID: id, Name: name, GroupName: group, UploadedMarkets: uploaded})
	f.details[id] = &catalog.Product{
		ID:              id,
		Name:            name,
		Category:        "캠핑",
		GroupName:       group,
		UploadedMarkets: uploaded,
		SKUs: []catalog.SKU{
			{ID: id + "-0", Name: "sample", Price: 0},
			{ID: id + "-1", Name: "Red", Price: 10},
			{ID: id + "-2", Name: "Blue", Price: 12},
		},
	}
}

func (f *fakeVendor) ListProducts(ctx context.Context, flt bulsaja.ProductFilter) ([]bulsaja.ProductSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.rows[flt.GroupName]
	end := flt.Offset + flt.Limit
	if end > len(all) {
		end = len(all)
	}
	if flt.Offset >= len(all) {
		return nil, len(all), nil
	}
	return all[flt.Offset:end], len(all), nil
}

func (f *fakeVendor) GetProductDetail(ctx context.Context, id string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.details[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeVendor) ResolveMarketID(ctx context.Context, group, marketType string) (string, error) {
	return group + "/" + marketType, nil
}

func (f *fakeVendor) UpdateUploadFields(ctx context.Context, id string, skus []catalog.SKU) error {
	return nil
}

func (f *fakeVendor) UploadProduct(ctx context.Context, id, marketID, marketType string, prevent bool) (*bulsaja.UploadResponse, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, id+"@"+marketType)
	hook := f.onUpload
	reply, failed := f.replies[id], f.failIDs[id]
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failed {
		return nil, errors.New("connection reset")
	}
	if reply != nil {
		return reply, nil
	}
	return &bulsaja.UploadResponse{Code: 1}, nil
}

func (f *fakeVendor) ApplyTag(ctx context.Context, ids []string, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagged = append(f.tagged, ids...)
	return nil
}

type memRecorder struct {
	mu       sync.Mutex
	results  []models.UploadResult
	issues   []models.Issue
	uploaded map[string]bool
}

func (r *memRecorder) RecordResult(ctx context.Context, res *models.UploadResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, *res)
	return nil
}

func (r *memRecorder) HasUploaded(ctx context.Context, productID, market string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploaded[productID+"@"+market], nil
}

func (r *memRecorder) OpenIssue(ctx context.Context, issue *models.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, *issue)
	return nil
}

func testValidator() *validation.Validator {
	set := keywords.Defaults()
	set.Bait = options.BaitConfig{Keywords: []string{"sample"}, PriceRatio: 0.5}
	set.Safety = safety.Rules{
		Banned:        map[string][]string{"brand": {"나이키"}},
		CategoryTiers: map[string]safety.Tier{"캠핑": safety.TierNormal},
	}
	return validation.New(validation.StaticRules(set), nil, logger.Nop())
}

func markets(t *testing.T, names ...string) []catalog.Market {
	var out []catalog.Market
	for _, n := range names {
		m, ok := catalog.LookupMarket(n)
		require.True(t, ok, n)
		out = append(out, m)
	}
	return out
}

func baseRequest(t *testing.T) Request {
	return Request{
		RunID:            "run-1",
		Groups:           []string{"store-a"},
		Markets:          markets(t, "SMARTSTORE"),
		PreventDuplicate: true,
		FailTag:          "업로드실패",
		GroupWorkers:     2,
		ProductWorkers:   3,
		Options:          validation.Options{Sort: options.SortPriceAsc, Limit: 5},
	}
}

func TestRunCountsEveryOutcome(t *testing.T) {
	v := newFakeVendor()
	v.add("store-a", "ok", "캠핑 랜턴", "")
	v.add("store-a", "dup", "캠핑 의자", "SMARTSTORE")
	v.add("store-a", "bad", "나이키 텐트", "")
	v.add("store-a", "down", "캠핑 테이블", "")
	v.failIDs["down"] = true
	rec := &memRecorder{}

	o := New(v.factory, testValidator(), nil, rec, logger.Nop())
	sum, err := o.Run(context.Background(), baseRequest(t))

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Success)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 4, sum.Total)

	assert.ElementsMatch(t, []string{"ok@SMARTSTORE", "down@SMARTSTORE"}, v.uploads)
	assert.Equal(t, []string{"down"}, v.tagged)
	require.Len(t, rec.issues, 1)
	assert.Equal(t, "bad", rec.issues[0].ProductID)
	assert.Equal(t, validation.CodeUnsafe, rec.issues[0].Code)
	assert.Len(t, rec.results, 4)
}

func TestRunSkipsRecordedUploads(t *testing.T) {
	v := newFakeVendor()
	v.add("store-a", "p1", "캠핑 랜턴", "")
	rec := &memRecorder{uploaded: map[string]bool{"p1@SMARTSTORE": true}}

	o := New(v.factory, testValidator(), nil, rec, logger.Nop())
	sum, err := o.Run(context.Background(), baseRequest(t))

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	assert.Empty(t, v.uploads)
}

func TestRunDuplicateReplyIsSkipped(t *testing.T) {
	v := newFakeVendor()
	v.add("store-a", "p1", "캠핑 랜턴", "")
	v.replies["p1"] = &bulsaja.UploadResponse{Code: 0, Message: "중복 상품"}

	o := New(v.factory, testValidator(), nil, nil, logger.Nop())
	sum, err := o.Run(context.Background(), baseRequest(t))

	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 1, Total: 1}, sum)
	assert.Empty(t, v.tagged)
}

func TestRunMarketLimitStopsThatMarket(t *testing.T) {
	v := newFakeVendor()
	for i := 0; i < 4; i++ {
		v.add("store-a", fmt.Sprintf("p%d", i), "캠핑 랜턴", "")
	}
	v.replies["p0"] = &bulsaja.UploadResponse{Code: 0, Message: "최대 5,000개 초과"}
	req := baseRequest(t)
	req.ProductWorkers = 1
	tracker := quota.NewMemory()

	o := New(v.factory, testValidator(), tracker, nil, logger.Nop())
	sum, err := o.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"p0@SMARTSTORE"}, v.uploads)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 3, sum.Skipped)

	hit, _ := tracker.Reached(context.Background(), "store-a", "SMARTSTORE")
	assert.True(t, hit)
}

func TestRunHonoursUploadCountAndGroups(t *testing.T) {
	v := newFakeVendor()
	for i := 0; i < 5; i++ {
		v.add("store-a", fmt.Sprintf("a%d", i), "캠핑 랜턴", "")
		v.add("store-b", fmt.Sprintf("b%d", i), "캠핑 랜턴", "")
	}
	req := baseRequest(t)
	req.Groups = []string{"store-a", "store-b"}
	req.Markets = markets(t, "SMARTSTORE", "COUPANG")
	req.UploadCount = 3

	o := New(v.factory, testValidator(), nil, nil, logger.Nop())
	sum, err := o.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 12, sum.Success)
	assert.Equal(t, 12, sum.Total)
	assert.Len(t, v.uploads, 12)
}

func TestRunDryRunDoesNotUpload(t *testing.T) {
	v := newFakeVendor()
	v.add("store-a", "p1", "캠핑 랜턴", "")
	rec := &memRecorder{}
	req := baseRequest(t)
	req.DryRun = true

	var mu sync.Mutex
	var seen []validation.Decision
	req.OnDecision = func(group string, p *catalog.Product, d validation.Decision) {
		mu.Lock()
		seen = append(seen, d)
		mu.Unlock()
	}

	o := New(v.factory, testValidator(), nil, rec, logger.Nop())
	sum, err := o.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Success)
	assert.Empty(t, v.uploads)
	assert.Empty(t, rec.results)
	require.Len(t, seen, 1)
	assert.Equal(t, "p1-1", seen[0].Main.ID)
}

func TestRunCancelStopsNewWork(t *testing.T) {
	v := newFakeVendor()
	for i := 0; i < 10; i++ {
		v.add("store-a", fmt.Sprintf("p%d", i), "캠핑 랜턴", "")
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.onUpload = cancel
	req := baseRequest(t)
	req.ProductWorkers = 1

	o := New(v.factory, testValidator(), nil, nil, logger.Nop())
	sum, err := o.Run(ctx, req)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, v.uploads, 1)
	assert.Equal(t, 1, sum.Success)
}

func TestRunTestProduct(t *testing.T) {
	v := newFakeVendor()
	v.add("store-a", "p1", "캠핑 랜턴", "")
	v.add("store-a", "p2", "캠핑 랜턴", "")
	req := baseRequest(t)
	req.Groups = nil
	req.TestProductID = "p2"

	o := New(v.factory, testValidator(), nil, nil, logger.Nop())
	sum, err := o.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Success)
	assert.Equal(t, []string{"p2@SMARTSTORE"}, v.uploads)
}

func TestSummaryMerge(t *testing.T) {
	var a, b Summary
	a.Add(models.OutcomeSuccess)
	b.Add(models.OutcomeFailed)
	b.Add(models.OutcomeSkipped)
	a.Merge(b)

	assert.Equal(t, Summary{Success: 1, Failed: 1, Skipped: 1, Total: 3}, a)
	assert.Equal(t, "success=1 failed=1 skipped=1 total=3", a.String())
}

func TestFromSession(t *testing.T) {
	on := false
	s := &config.Session{
		OptionSort:       "price_main",
		OptionCount:      3,
		Markets:          []string{"쿠팡", "st11"},
		PreventDuplicate: &on,
		ThrottleMS:       200,
		Pricing:          config.Pricing{ExchangeRate: 200, RoundUnit: 100, MaxPrice: 90000},
	}

	req, err := FromSession(s, []string{"store-a"})

	require.NoError(t, err)
	assert.Equal(t, options.SortPriceMain, req.Options.Sort)
	assert.Equal(t, 3, req.Options.Limit)
	assert.False(t, req.PreventDuplicate)
	require.Len(t, req.Markets, 2)
	assert.Equal(t, "COUPANG", req.Markets[0].Type)
	assert.Equal(t, "ST11", req.Markets[1].Type)
	assert.Equal(t, int64(90000), req.Options.Pricing.MaxPrice)

	s.Markets = []string{"아마존"}
	_, err = FromSession(s, nil)
	assert.True(t, apperr.IsKind(err, apperr.Config))
}

type memRuns struct {
	created, finished *models.UploadRun
}

func (m *memRuns) CreateRun(ctx context.Context, run *models.UploadRun) error {
	cp := *run
	m.created = &cp
	return nil
}

func (m *memRuns) FinishRun(ctx context.Context, run *models.UploadRun) error {
	cp := *run
	m.finished = &cp
	return nil
}

func TestRunRecorded(t *testing.T) {
	v := newFakeVendor()
	v.add("store-a", "p1", "캠핑 랜턴", "")
	store := &memRuns{}

	o := New(v.factory, testValidator(), nil, nil, logger.Nop())
	run, sum, err := o.RunRecorded(context.Background(), store, "s1", baseRequest(t))

	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "store-a", store.created.Groups)
	assert.Equal(t, models.RunStatusCompleted, store.finished.Status)
	assert.Equal(t, sum.Success, store.finished.Success)
	assert.Equal(t, 1, store.finished.Total)
}
