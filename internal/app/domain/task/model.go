// Package task defines per-user task assignments and commission accrual.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Status is the completion state of an assigned task.
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
)

// ParseStatus validates a caller-supplied status. "completed" is accepted as
// a spelling of complete so readers and writers cannot drift apart.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, nil
	case "complete", "completed":
		return StatusComplete, nil
	default:
		return "", fmt.Errorf("invalid task status %q", raw)
	}
}

// RetentionThreshold is the completed-task count that triggers a sweep: once a
// user accumulates this many completed tasks, the oldest RetentionThreshold
// completed tasks are purged from the assignment.
const RetentionThreshold = 20

// Task is one assignable unit of work with a commission payable on
// completion. TaskNumber is unique within a user's assignment.
type Task struct {
	TaskNumber    int        `json:"taskNumber"`
	Title         string     `json:"title,omitempty"`
	Commission    float64    `json:"commission"`
	Status        Status     `json:"status"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	// CommissionPaid marks that the commission was credited; it stays set
	// across a status revert so one task never pays twice.
	CommissionPaid bool `json:"commissionPaid,omitempty"`
}

// Assignment is a user's ordered task list. List position is assignment
// order; the retention sweep relies on it.
type Assignment struct {
	UserID string `json:"userId"`
	Tasks  []Task `json:"tasks"`
}

// CompletedCommission sums the commission of completed tasks.
func (a Assignment) CompletedCommission() float64 {
	var total float64
	for _, t := range a.Tasks {
		if t.Status == StatusComplete {
			total += t.Commission
		}
	}
	return total
}
