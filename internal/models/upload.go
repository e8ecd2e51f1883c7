package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusCancelled RunStatus = "CANCELLED"
	RunStatusFailed    RunStatus = "FAILED"
)

// UploadRun is one orchestrator invocation.
type UploadRun struct {
	ID         string     `json:"id" gorm:"type:uuid;primaryKey"`
	Session    string     `json:"session"`
	Groups     string     `json:"groups" gorm:"type:text"`
	Markets    string     `json:"markets" gorm:"type:text"`
	DryRun     bool       `json:"dry_run"`
	Status     RunStatus  `json:"status" gorm:"default:RUNNING"`
	Success    int        `json:"success"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	Total      int        `json:"total"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (r *UploadRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	return nil
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// UploadResult is the outcome of one product on one market.
type UploadResult struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	RunID      string    `json:"run_id" gorm:"index"`
	ProductID  string    `json:"product_id" gorm:"index:idx_result_product_market"`
	Market     string    `json:"market" gorm:"index:idx_result_product_market"`
	GroupName  string    `json:"group_name"`
	Outcome    Outcome   `json:"outcome"`
	Reason     string    `json:"reason"`
	Message    string    `json:"message" gorm:"type:text"`
	SKUCount   int       `json:"sku_count"`
	MainOption string    `json:"main_option"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *UploadResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
