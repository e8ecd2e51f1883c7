package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Issue flags a product that was held back and needs an operator.
type Issue struct {
	ID          string        `json:"id" gorm:"type:uuid;primaryKey"`
	RunID       string        `json:"run_id" gorm:"index"`
	ProductID   string        `json:"product_id" gorm:"not null;index"`
	ProductName string        `json:"product_name"`
	GroupName   string        `json:"group_name"`
	Channel     string        `json:"channel" gorm:"not null"`
	Code        string        `json:"code" gorm:"not null"`
	Severity    IssueSeverity `json:"severity" gorm:"not null"`
	Explanation string        `json:"explanation" gorm:"not null"`
	Tier        string        `json:"tier"`
	IsResolved  bool          `json:"is_resolved" gorm:"default:false"`
	ResolvedAt  *time.Time    `json:"resolved_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type IssueSeverity string

const (
	IssueSeverityLow      IssueSeverity = "LOW"
	IssueSeverityMedium   IssueSeverity = "MEDIUM"
	IssueSeverityHigh     IssueSeverity = "HIGH"
	IssueSeverityCritical IssueSeverity = "CRITICAL"
)

// SeverityFor ranks the validator's rejection codes.
func SeverityFor(code string) IssueSeverity {
	switch code {
	case "unsafe":
		return IssueSeverityCritical
	case "needs_review":
		return IssueSeverityHigh
	case "no_valid_options", "no_main_option":
		return IssueSeverityMedium
	default:
		return IssueSeverityLow
	}
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
