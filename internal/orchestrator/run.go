package orchestrator

import (
	"context"
	"errors"
	"strings"

	"uploader/internal/models"

	"github.com/google/uuid"
)

// RunStore keeps the run record; database.Repository satisfies it.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.UploadRun) error
	FinishRun(ctx context.Context, run *models.UploadRun) error
}

// RunRecorded wraps Run with a persisted UploadRun carrying the final
// counters. req.RunID is filled in when empty.
func (o *Orchestrator) RunRecorded(ctx context.Context, store RunStore, session string, req Request) (*models.UploadRun, Summary, error) {
	if req.RunID == "" {
		req.RunID = uuid.New().String()
	}
	types := make([]string, len(req.Markets))
	for i, m := range req.Markets {
		types[i] = m.Type
	}
	run := &models.UploadRun{
		ID:      req.RunID,
		Session: session,
		Groups:  strings.Join(req.Groups, ","),
		Markets: strings.Join(types, ","),
		DryRun:  req.DryRun,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		return nil, Summary{}, err
	}

	sum, err := o.Run(ctx, req)

	run.Success, run.Failed, run.Skipped, run.Total = sum.Success, sum.Failed, sum.Skipped, sum.Total
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		run.Status = models.RunStatusCancelled
	case err != nil:
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	default:
		run.Status = models.RunStatusCompleted
	}
	if len(sum.Errors) > 0 && run.Error == "" {
		run.Error = strings.Join(sum.Errors, "; ")
	}

	if ferr := store.FinishRun(context.WithoutCancel(ctx), run); ferr != nil {
		o.logger.Error("run %s not finalised: %v", run.ID, ferr)
	}
	return run, sum, err
}
