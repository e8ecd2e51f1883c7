package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"uploader/internal/catalog"
	"uploader/internal/logger"
	"uploader/internal/models"
	"uploader/internal/quota"
	"uploader/internal/services/bulsaja"
	"uploader/internal/worker/processors/export"
	"uploader/internal/worker/processors/validation"

	"golang.org/x/sync/errgroup"
)

const pageSize = 100

// VendorAPI is what one worker needs from the sourcing vendor.
type VendorAPI interface {
	export.Uploader
	ListProducts(ctx context.Context, f bulsaja.ProductFilter) ([]bulsaja.ProductSummary, int, error)
	GetProductDetail(ctx context.Context, productID string) (*catalog.Product, error)
	ResolveMarketID(ctx context.Context, groupName, marketType string) (string, error)
	ApplyTag(ctx context.Context, productIDs []string, tag string) error
}

// ClientFactory hands every worker its own vendor session.
type ClientFactory func() VendorAPI

// Recorder persists outcomes; database.Repository satisfies it.
type Recorder interface {
	RecordResult(ctx context.Context, res *models.UploadResult) error
	HasUploaded(ctx context.Context, productID, market string) (bool, error)
	OpenIssue(ctx context.Context, issue *models.Issue) error
}

// DecisionFunc observes every validated product. It is called from several
// workers at once.
type DecisionFunc func(group string, p *catalog.Product, d validation.Decision)

type Request struct {
	RunID         string
	Groups        []string
	Markets       []catalog.Market
	UploadCount   int
	StatusFilters []string
	ExcludeTag    string
	FailTag       string
	// TestProductID processes a single product instead of listing groups.
	TestProductID string

	DryRun           bool
	PreventDuplicate bool
	SkipSKUUpdate    bool
	Throttle         time.Duration
	GroupWorkers     int
	ProductWorkers   int

	Options    validation.Options
	OnDecision DecisionFunc
}

type Orchestrator struct {
	clients   ClientFactory
	validator *validation.Validator
	quota     quota.Tracker
	recorder  Recorder
	logger    *logger.Logger
}

// New wires an orchestrator. tracker and recorder may be nil.
func New(clients ClientFactory, validator *validation.Validator, tracker quota.Tracker, recorder Recorder, logger *logger.Logger) *Orchestrator {
	if tracker == nil {
		tracker = quota.NewMemory()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Orchestrator{
		clients:   clients,
		validator: validator,
		quota:     tracker,
		recorder:  recorder,
		logger:    logger,
	}
}

// Run uploads every group in req. Groups run on up to GroupWorkers
// goroutines and products inside a group on up to ProductWorkers. On
// cancellation no new work starts and Run returns the partial summary with
// ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, req Request) (Summary, error) {
	if req.TestProductID != "" {
		sum := o.runTestProduct(ctx, req)
		return sum, ctx.Err()
	}

	var (
		mu    sync.Mutex
		total Summary
	)
	g := new(errgroup.Group)
	g.SetLimit(max(req.GroupWorkers, 1))

	for _, group := range req.Groups {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			sum := o.runGroup(ctx, group, nil, req)
			mu.Lock()
			total.Merge(sum)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	o.logger.Info("run %s finished: %s", req.RunID, total)
	return total, ctx.Err()
}

func (o *Orchestrator) runTestProduct(ctx context.Context, req Request) Summary {
	api := o.clients()
	p, err := api.GetProductDetail(ctx, req.TestProductID)
	if err != nil {
		o.logger.Error("test product %s: %v", req.TestProductID, err)
		return Summary{Errors: []string{err.Error()}}
	}
	group := p.GroupName
	if group == "" && len(req.Groups) > 0 {
		group = req.Groups[0]
	}
	row := bulsaja.ProductSummary{ID: p.ID, Name: p.Name, GroupName: group}
	return o.runGroup(ctx, group, []bulsaja.ProductSummary{row}, req)
}

// runGroup resolves the group's markets, lists its products unless rows is
// given and fans them out to product workers.
func (o *Orchestrator) runGroup(ctx context.Context, group string, rows []bulsaja.ProductSummary, req Request) Summary {
	log := o.logger.With("group", group)
	api := o.clients()

	targets := o.resolveTargets(ctx, api, group, req, log)
	if len(targets) == 0 {
		msg := "no usable markets for group " + group
		log.Error(msg)
		return Summary{Errors: []string{msg}}
	}

	if rows == nil {
		var err error
		rows, err = o.listProducts(ctx, api, group, req)
		if err != nil {
			log.Error("listing products failed: %v", err)
			return Summary{Errors: []string{group + ": " + err.Error()}}
		}
	}
	log.Info("%d products to process on %d markets", len(rows), len(targets))

	work := make(chan bulsaja.ProductSummary)
	results := make(chan Summary)
	n := max(req.ProductWorkers, 1)
	for i := 0; i < n; i++ {
		w := o.newWorker(group, targets, req, log)
		go func() {
			for row := range work {
				if ctx.Err() != nil {
					continue
				}
				w.process(ctx, row)
			}
			results <- w.summary
		}()
	}

feed:
	for _, row := range rows {
		select {
		case <-ctx.Done():
			break feed
		case work <- row:
		}
	}
	close(work)

	var sum Summary
	for i := 0; i < n; i++ {
		sum.Merge(<-results)
	}
	log.Info("group done: %s", sum)
	return sum
}

func (o *Orchestrator) resolveTargets(ctx context.Context, api VendorAPI, group string, req Request, log *logger.Logger) []export.Target {
	targets := make([]export.Target, 0, len(req.Markets))
	for _, m := range req.Markets {
		t := export.Target{Group: group, Market: m}
		if !req.DryRun {
			id, err := api.ResolveMarketID(ctx, group, m.Type)
			if err != nil {
				log.Error("[%s] market not resolved: %v", m.Code, err)
				continue
			}
			t.MarketID = id
		}
		targets = append(targets, t)
	}
	return targets
}

// listProducts pages through the grid until UploadCount rows are collected
// or the grid is exhausted.
func (o *Orchestrator) listProducts(ctx context.Context, api VendorAPI, group string, req Request) ([]bulsaja.ProductSummary, error) {
	var rows []bulsaja.ProductSummary
	offset := 0
	for ctx.Err() == nil {
		limit := pageSize
		if req.UploadCount > 0 && req.UploadCount-len(rows) < limit {
			limit = req.UploadCount - len(rows)
		}
		page, total, err := api.ListProducts(ctx, bulsaja.ProductFilter{
			GroupName:  group,
			Statuses:   req.StatusFilters,
			ExcludeTag: req.ExcludeTag,
			Offset:     offset,
			Limit:      limit,
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		offset += len(page)

		if len(page) == 0 || offset >= total {
			break
		}
		if req.UploadCount > 0 && len(rows) >= req.UploadCount {
			break
		}
	}
	return rows, nil
}

func marketTypes(targets []export.Target) string {
	types := make([]string, len(targets))
	for i, t := range targets {
		types[i] = t.Market.Type
	}
	return strings.Join(types, ",")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordResult(context.Context, *models.UploadResult) error  { return nil }
func (nopRecorder) HasUploaded(context.Context, string, string) (bool, error) { return false, nil }
func (nopRecorder) OpenIssue(context.Context, *models.Issue) error            { return nil }
