package validation

import (
	"context"
	"fmt"

	"uploader/internal/catalog"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/options"
	"uploader/internal/safety"
)

// Issue codes for products that cannot be uploaded.
const (
	CodeUnsafe         = "unsafe"
	CodeNeedsReview    = "needs_review"
	CodeNoOptions      = "no_options"
	CodeNoValidOptions = "no_valid_options"
	CodeNoMainOption   = "no_main_option"
)

// RuleSource supplies the current keyword set; keywords.Store satisfies it.
type RuleSource interface {
	Get() keywords.Set
}

type staticRules keywords.Set

func (s staticRules) Get() keywords.Set { return keywords.Set(s) }

func StaticRules(set keywords.Set) RuleSource { return staticRules(set) }

type Options struct {
	Sort         options.SortMode
	Limit        int
	PriceCluster bool
	ClusterGap   float64
	// Pricing is skipped when nil.
	Pricing *options.PriceSettings
}

// Decision is everything the pipeline concluded about one product.
type Decision struct {
	Verdict    safety.Verdict
	Total      int
	Duplicates []catalog.SKU
	Valid      []catalog.SKU
	Bait       []catalog.SKU
	OverPrice  []catalog.SKU
	Selected   []catalog.SKU
	Main       catalog.SKU
	Method     options.MatchMethod

	Ready  bool
	Code   string
	Reason string
}

func (d *Decision) reject(code, reason string) Decision {
	d.Ready = false
	d.Code = code
	d.Reason = reason
	return *d
}

type Validator struct {
	rules    RuleSource
	reviewer safety.Reviewer
	logger   *logger.Logger
}

// New builds a validator. reviewer may be nil, in which case strict-tier
// products go to manual review.
func New(rules RuleSource, reviewer safety.Reviewer, logger *logger.Logger) *Validator {
	return &Validator{
		rules:    rules,
		reviewer: reviewer,
		logger:   logger,
	}
}

// CheckSafety runs only the safety stage, reviewer included.
func (v *Validator) CheckSafety(ctx context.Context, name, category string) safety.Verdict {
	return safety.CheckProductSafety(ctx, safety.Input{Name: name, Category: category}, v.rules.Get().Safety, v.reviewer)
}

// Screen is CheckSafety without the reviewer. The orchestrator uses it on
// list rows to drop banned products before fetching their detail; strict
// tiers come back as needs_review and are settled later by Validate.
func (v *Validator) Screen(ctx context.Context, name, category string) safety.Verdict {
	return safety.CheckProductSafety(ctx, safety.Input{Name: name, Category: category}, v.rules.Get().Safety, nil)
}

// Validate runs safety, option cleanup, bait filtering, pricing and main
// option selection in that order and stops at the first stage that leaves
// nothing to upload.
func (v *Validator) Validate(ctx context.Context, p *catalog.Product, opts Options) Decision {
	set := v.rules.Get()
	d := Decision{Total: len(p.SKUs)}

	d.Verdict = safety.CheckProductSafety(ctx, safety.Input{Name: p.Name, Category: p.Category}, set.Safety, v.reviewer)
	switch d.Verdict.Status {
	case safety.StatusUnsafe:
		return d.reject(CodeUnsafe, d.Verdict.Reason)
	case safety.StatusReview:
		return d.reject(CodeNeedsReview, d.Verdict.Reason)
	}

	if len(p.SKUs) == 0 {
		return d.reject(CodeNoOptions, "product has no options")
	}

	// the vendor exclude flag is not a verdict: excluded options may still be
	// selected, and UploadSKUs rewrites the flag for everything else
	active, dups := options.DedupeSKUs(p.SKUs)
	d.Duplicates = dups
	if len(d.Duplicates) > 0 {
		v.logger.Error("product %s has %d duplicate options, dropped", p.ID, len(d.Duplicates))
	}

	d.Valid, d.Bait = options.FilterBaitOptions(active, set.Bait)
	if opts.PriceCluster {
		var outliers []catalog.SKU
		d.Valid, outliers = options.DetectBaitByPriceCluster(d.Valid, opts.ClusterGap)
		d.Bait = append(d.Bait, outliers...)
	}
	if len(d.Valid) == 0 {
		return d.reject(CodeNoValidOptions, fmt.Sprintf("all %d options are bait", len(p.SKUs)))
	}

	candidates := d.Valid
	if opts.Pricing != nil {
		candidates, d.OverPrice = options.ApplyPriceRange(d.Valid, *opts.Pricing, p.DeliveryFee)
		if len(candidates) == 0 {
			return d.reject(CodeNoValidOptions, fmt.Sprintf("all options above max price %d", opts.Pricing.MaxPrice))
		}
	}

	if opts.Sort == options.SortPriceMain {
		idx, method := options.MatchRepresentative(p.Name, p.Thumbnails, candidates)
		d.Method = method
		if idx >= 0 {
			candidates = options.CapFromMain(candidates, candidates[idx], 0)
		}
	}

	d.Selected = options.SelectMainOption(candidates, opts.Sort, opts.Limit)
	main, ok := options.MainOf(d.Selected)
	if !ok {
		return d.reject(CodeNoMainOption, "no representative option selected")
	}
	d.Main = main
	d.Ready = true

	v.logger.Debug("product %s: %d options, %d bait, %d selected, main %s", p.ID, d.Total, len(d.Bait), len(d.Selected), main.ID)
	return d
}

// UploadSKUs is the SKU list to write back: selected SKUs first, every other
// SKU kept but excluded.
func (d Decision) UploadSKUs(all []catalog.SKU) []catalog.SKU {
	picked := make(map[string]bool, len(d.Selected))
	out := make([]catalog.SKU, 0, len(all))
	for _, s := range d.Selected {
		s.Exclude = false
		picked[s.ID] = true
		out = append(out, s)
	}
	for _, s := range all {
		if picked[s.ID] {
			continue
		}
		s.Exclude = true
		s.MainProduct = false
		out = append(out, s)
	}
	return out
}
