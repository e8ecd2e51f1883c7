package orchestrator

import (
	"fmt"

	"uploader/internal/models"
)

// Summary counts product × market outcomes. Each worker owns one and they
// are merged once the worker is done.
type Summary struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Summary) Add(o models.Outcome) {
	switch o {
	case models.OutcomeSuccess:
		s.Success++
	case models.OutcomeFailed:
		s.Failed++
	default:
		s.Skipped++
	}
	s.Total++
}

func (s *Summary) Merge(other Summary) {
	s.Success += other.Success
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Total += other.Total
	s.Errors = append(s.Errors, other.Errors...)
}

func (s Summary) String() string {
	return fmt.Sprintf("success=%d failed=%d skipped=%d total=%d", s.Success, s.Failed, s.Skipped, s.Total)
}
