package orchestrator

import (
	"context"

	"uploader/internal/catalog"
	"uploader/internal/logger"
	"uploader/internal/models"
	"uploader/internal/safety"
	"uploader/internal/services/bulsaja"
	"uploader/internal/worker/processors/export"
	"uploader/internal/worker/processors/validation"
)

// productWorker owns one vendor session and its own counters.
type productWorker struct {
	o        *Orchestrator
	api      VendorAPI
	exporter *export.Exporter
	group    string
	targets  []export.Target
	req      Request
	log      *logger.Logger
	summary  Summary
}

func (o *Orchestrator) newWorker(group string, targets []export.Target, req Request, log *logger.Logger) *productWorker {
	api := o.clients()
	return &productWorker{
		o:   o,
		api: api,
		exporter: export.New(api, export.Options{
			SkipSKUUpdate:    req.SkipSKUUpdate,
			PreventDuplicate: req.PreventDuplicate,
		}, log),
		group:   group,
		targets: targets,
		req:     req,
		log:     log,
	}
}

// process takes one product through safety, duplicate checks, option
// classification and upload to each pending market.
func (w *productWorker) process(ctx context.Context, row bulsaja.ProductSummary) {
	if row.Name != "" {
		if v := w.o.validator.Screen(ctx, row.Name, row.CategoryName()); v.Status == safety.StatusUnsafe {
			w.log.Info("%s excluded (%s): %s", row.ID, v.Label(), v.Reason)
			w.openIssue(ctx, row.ID, row.Name, validation.CodeUnsafe, v)
			w.skipAll(ctx, row.ID, w.targets, validation.CodeUnsafe, v.Reason)
			return
		}
	}

	pending := w.pendingTargets(ctx, row.ID, row.UploadedTo)
	if len(pending) == 0 {
		return
	}

	p, err := w.api.GetProductDetail(ctx, row.ID)
	if err != nil {
		w.log.Error("%s: detail fetch failed: %v", row.ID, err)
		w.failAll(ctx, row.ID, pending, "detail_fetch", err.Error())
		return
	}
	if p.Name == "" {
		p.Name = row.Name
	}
	if p.Category == "" {
		p.Category = row.CategoryName()
	}

	// The detail carries the authoritative upload history.
	if w.req.PreventDuplicate {
		kept := make([]export.Target, 0, len(pending))
		for _, t := range pending {
			if p.UploadedTo(t.Market) {
				w.log.Info("[%s] %s skipped: already uploaded", t.Market.Code, p.ID)
				w.record(ctx, p.ID, t, models.OutcomeSkipped, "duplicate", "already uploaded", nil)
				continue
			}
			kept = append(kept, t)
		}
		pending = kept
		if len(pending) == 0 {
			return
		}
	}

	d := w.o.validator.Validate(ctx, p, w.req.Options)
	if w.req.OnDecision != nil {
		w.req.OnDecision(w.group, p, d)
	}
	if !d.Ready {
		w.log.Info("%s excluded (%s): %s", p.ID, d.Code, d.Reason)
		w.openIssue(ctx, p.ID, p.Name, d.Code, d.Verdict)
		w.skipAll(ctx, p.ID, pending, d.Code, d.Reason)
		return
	}

	if w.req.DryRun {
		for _, t := range pending {
			w.log.Info("[%s] %s simulated: %d options, main %s", t.Market.Code, p.ID, len(d.Selected), d.Main.DisplayName())
			w.record(ctx, p.ID, t, models.OutcomeSuccess, "simulated", "", &d)
		}
		return
	}

	if err := w.exporter.WriteOptions(ctx, p, d); err != nil {
		w.failAll(ctx, p.ID, pending, "option_update", err.Error())
		w.tagFailed(ctx, p.ID)
		return
	}

	failed := false
	for i, t := range pending {
		if i > 0 && ctx.Err() != nil {
			break
		}
		if w.limitReached(ctx, t) {
			w.record(ctx, p.ID, t, models.OutcomeSkipped, "market_limit", "upload limit reached earlier in this run", &d)
			continue
		}

		res, err := w.exporter.Export(ctx, p, d, t)
		switch {
		case err != nil:
			failed = true
			w.record(ctx, p.ID, t, models.OutcomeFailed, "network", res.Message, &d)
		case res.Outcome == bulsaja.UploadSuccess:
			w.record(ctx, p.ID, t, models.OutcomeSuccess, "", res.Message, &d)
		case res.Outcome == bulsaja.UploadDuplicate:
			w.record(ctx, p.ID, t, models.OutcomeSkipped, "duplicate", res.Message, &d)
		case res.Outcome == bulsaja.UploadQuotaLimit, res.Outcome == bulsaja.UploadMarketLimit:
			if err := w.o.quota.Mark(ctx, w.group, t.Market.Type); err != nil {
				w.log.Error("[%s] could not store market limit: %v", t.Market.Code, err)
			}
			w.record(ctx, p.ID, t, models.OutcomeFailed, string(res.Outcome), res.Message, &d)
		default:
			failed = true
			w.record(ctx, p.ID, t, models.OutcomeFailed, "rejected", res.Message, &d)
		}

		if err := sleep(ctx, w.req.Throttle); err != nil {
			break
		}
	}

	if failed {
		w.tagFailed(ctx, p.ID)
	}
}

// pendingTargets drops markets the product is already on or that are out
// of quota. Every dropped market is recorded as skipped.
func (w *productWorker) pendingTargets(ctx context.Context, productID string, uploadedTo func(catalog.Market) bool) []export.Target {
	pending := make([]export.Target, 0, len(w.targets))
	for _, t := range w.targets {
		if w.limitReached(ctx, t) {
			w.log.Info("[%s] %s skipped: market limit reached", t.Market.Code, productID)
			w.record(ctx, productID, t, models.OutcomeSkipped, "market_limit", "upload limit reached", nil)
			continue
		}
		if w.req.PreventDuplicate {
			done := uploadedTo(t.Market)
			if !done {
				var err error
				done, err = w.o.recorder.HasUploaded(ctx, productID, t.Market.Type)
				if err != nil {
					w.log.Error("[%s] %s: upload history lookup failed: %v", t.Market.Code, productID, err)
				}
			}
			if done {
				w.log.Info("[%s] %s skipped: already uploaded", t.Market.Code, productID)
				w.record(ctx, productID, t, models.OutcomeSkipped, "duplicate", "already uploaded", nil)
				continue
			}
		}
		pending = append(pending, t)
	}
	return pending
}

func (w *productWorker) limitReached(ctx context.Context, t export.Target) bool {
	hit, err := w.o.quota.Reached(ctx, w.group, t.Market.Type)
	if err != nil {
		w.log.Error("[%s] quota lookup failed: %v", t.Market.Code, err)
		return false
	}
	return hit
}

func (w *productWorker) skipAll(ctx context.Context, productID string, targets []export.Target, reason, msg string) {
	for _, t := range targets {
		w.record(ctx, productID, t, models.OutcomeSkipped, reason, msg, nil)
	}
}

func (w *productWorker) failAll(ctx context.Context, productID string, targets []export.Target, reason, msg string) {
	for _, t := range targets {
		w.record(ctx, productID, t, models.OutcomeFailed, reason, msg, nil)
	}
}

func (w *productWorker) record(ctx context.Context, productID string, t export.Target, outcome models.Outcome, reason, msg string, d *validation.Decision) {
	w.summary.Add(outcome)

	res := &models.UploadResult{
		RunID:     w.req.RunID,
		ProductID: productID,
		Market:    t.Market.Type,
		GroupName: w.group,
		Outcome:   outcome,
		Reason:    reason,
		Message:   msg,
	}
	if d != nil {
		res.SKUCount = len(d.Selected)
		res.MainOption = d.Main.ID
	}
	// Results from a dry run must not count as upload history.
	if w.req.DryRun {
		return
	}
	if err := w.o.recorder.RecordResult(context.WithoutCancel(ctx), res); err != nil {
		w.log.Error("%s: result not recorded: %v", productID, err)
	}
}

func (w *productWorker) openIssue(ctx context.Context, productID, name, code string, v safety.Verdict) {
	if w.req.DryRun {
		return
	}
	explanation := v.Reason
	if explanation == "" {
		explanation = code
	}
	issue := &models.Issue{
		RunID:       w.req.RunID,
		ProductID:   productID,
		ProductName: name,
		GroupName:   w.group,
		Channel:     marketTypes(w.targets),
		Code:        code,
		Explanation: explanation,
		Tier:        string(v.Tier),
	}
	if err := w.o.recorder.OpenIssue(context.WithoutCancel(ctx), issue); err != nil {
		w.log.Error("%s: issue not opened: %v", productID, err)
	}
}

func (w *productWorker) tagFailed(ctx context.Context, productID string) {
	if w.req.FailTag == "" {
		return
	}
	if err := w.api.ApplyTag(ctx, []string{productID}, w.req.FailTag); err != nil {
		w.log.Error("%s: fail tag not applied: %v", productID, err)
		return
	}
	w.log.Debug("%s tagged %s", productID, w.req.FailTag)
}
