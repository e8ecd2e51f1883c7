// Package safety decides whether a product may be listed at all.
package safety

import (
	"context"
	"fmt"
	"strings"
)

type Status string

const (
	StatusSafe   Status = "safe"
	StatusUnsafe Status = "unsafe"
	StatusReview Status = "needs_review"
)

const (
	LabelSafe   = "안전"
	LabelUnsafe = "위험"
)

type Input struct {
	Name        string
	Description string
	Category    string
}

func (in Input) text() string {
	return strings.TrimSpace(in.Name + " " + in.Description)
}

// Review is a strict-tier reviewer's answer.
type Review struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason"`
}

// Reviewer gives the extra scrutiny strict-tier categories need.
type Reviewer interface {
	Review(ctx context.Context, in Input) (Review, error)
}

type Verdict struct {
	Status      Status   `json:"status"`
	Reason      string   `json:"reason,omitempty"`
	Tier        Tier     `json:"tier,omitempty"`
	Matches     []Match  `json:"matches,omitempty"`
	SafeContext []string `json:"safe_context,omitempty"`
	AIJudgment  string   `json:"ai_judgment,omitempty"`
}

// Safe is false for both unsafe and needs_review.
func (v Verdict) Safe() bool { return v.Status == StatusSafe }

func (v Verdict) Label() string {
	if v.Safe() {
		return LabelSafe
	}
	return LabelUnsafe
}

// CheckProductSafety classifies a product. A skip-tier category is vetoed
// before anything else, then banned words are scanned. A strict tier needs a
// positive answer from reviewer. Anything undecidable comes back as
// needs_review, never safe, and every non-safe verdict carries a reason.
func CheckProductSafety(ctx context.Context, in Input, rules Rules, reviewer Reviewer) Verdict {
	tier, known := rules.TierFor(in.Category)
	v := Verdict{Tier: tier}

	if known && tier == TierSkip {
		v.Status = StatusUnsafe
		v.Reason = fmt.Sprintf("excluded category: %s", in.Category)
		return v
	}

	hits, cleared := rules.scan(in.text())
	v.SafeContext = cleared
	if len(hits) > 0 {
		v.Status = StatusUnsafe
		v.Matches = hits
		v.Reason = hits[0].Word
		return v
	}

	switch {
	case strings.TrimSpace(in.Category) == "":
		v.Status = StatusReview
		v.Reason = "missing category"
		return v
	case !known:
		v.Status = StatusReview
		v.Reason = fmt.Sprintf("no review tier for category: %s", in.Category)
		return v
	case !tier.Valid():
		v.Status = StatusReview
		v.Reason = fmt.Sprintf("unknown review tier %q for category: %s", tier, in.Category)
		return v
	case tier == TierStrict:
		return strictReview(ctx, in, reviewer, v)
	}

	v.Status = StatusSafe
	return v
}

func strictReview(ctx context.Context, in Input, reviewer Reviewer, v Verdict) Verdict {
	if reviewer == nil {
		v.Status = StatusReview
		v.Reason = "strict category needs review"
		return v
	}

	r, err := reviewer.Review(ctx, in)
	if err != nil {
		v.Status = StatusReview
		v.Reason = fmt.Sprintf("strict review unavailable: %v", err)
		return v
	}

	v.AIJudgment = r.Reason
	if !r.Safe {
		v.Status = StatusUnsafe
		v.Reason = r.Reason
		if v.Reason == "" {
			v.Reason = "rejected by strict review"
		}
		return v
	}
	v.Status = StatusSafe
	return v
}

// Classifier binds rules and a reviewer for repeated checks.
type Classifier struct {
	rules    Rules
	reviewer Reviewer
}

func New(rules Rules, reviewer Reviewer) *Classifier {
	return &Classifier{rules: rules, reviewer: reviewer}
}

func (c *Classifier) Check(ctx context.Context, in Input) Verdict {
	return CheckProductSafety(ctx, in, c.rules, c.reviewer)
}

func (c *Classifier) Rules() Rules { return c.rules }
