package database

import (
	"context"
	"errors"
	"time"

	"uploader/internal/apperr"
	"uploader/internal/models"

	"gorm.io/gorm"
)

// Repository persists runs, per-market results and review issues.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRun(ctx context.Context, run *models.UploadRun) error {
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return apperr.Wrap(apperr.Internal, err, "create run")
	}
	return nil
}

// FinishRun stores the final counters and status of a run.
func (r *Repository) FinishRun(ctx context.Context, run *models.UploadRun) error {
	now := time.Now()
	run.FinishedAt = &now
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return apperr.Wrap(apperr.Internal, err, "finish run")
	}
	return nil
}

func (r *Repository) RecordResult(ctx context.Context, res *models.UploadResult) error {
	if err := r.db.WithContext(ctx).Create(res).Error; err != nil {
		return apperr.Wrap(apperr.Internal, err, "record result")
	}
	return nil
}

// HasUploaded reports whether any earlier run put productID on market.
func (r *Repository) HasUploaded(ctx context.Context, productID, market string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UploadResult{}).
		Where("product_id = ? AND market = ? AND outcome = ?", productID, market, models.OutcomeSuccess).
		Count(&n).Error
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, err, "check upload history")
	}
	return n > 0, nil
}

// OpenIssue creates an issue unless an unresolved one with the same product,
// channel and code already exists.
func (r *Repository) OpenIssue(ctx context.Context, issue *models.Issue) error {
	var existing models.Issue
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND channel = ? AND code = ? AND is_resolved = ?", issue.ProductID, issue.Channel, issue.Code, false).
		First(&existing).Error
	if err == nil {
		*issue = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.Internal, err, "look up issue")
	}

	if issue.Severity == "" {
		issue.Severity = models.SeverityFor(issue.Code)
	}
	if err := r.db.WithContext(ctx).Create(issue).Error; err != nil {
		return apperr.Wrap(apperr.Internal, err, "create issue")
	}
	return nil
}

func (r *Repository) ListRuns(ctx context.Context, offset, limit int) ([]models.UploadRun, int64, error) {
	var runs []models.UploadRun
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UploadRun{})
	query.Count(&total)
	if err := query.Order("started_at desc").Offset(offset).Limit(limit).Find(&runs).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "list runs")
	}
	return runs, total, nil
}

func (r *Repository) GetRun(ctx context.Context, id string) (*models.UploadRun, error) {
	var run models.UploadRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "run not found")
		}
		return nil, apperr.Wrap(apperr.Internal, err, "get run")
	}
	return &run, nil
}

func (r *Repository) Results(ctx context.Context, runID string) ([]models.UploadResult, error) {
	var results []models.UploadResult
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("created_at").Find(&results).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list results")
	}
	return results, nil
}
