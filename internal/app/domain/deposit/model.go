// Package deposit defines deposit records and their status vocabulary.
package deposit

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a deposit.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusCancel  Status = "cancel"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusCancel:
		return StatusCancel, nil
	default:
		return "", fmt.Errorf("invalid deposit status %q", raw)
	}
}

// MinAmount is the smallest accepted deposit.
const MinAmount = 0.1

// Deposit is a user-submitted top-up awaiting admin review. The owning user is
// referenced by username, matching the payment proof workflow.
type Deposit struct {
	ID         string    `json:"depositId"`
	Username   string    `json:"username"`
	Amount     float64   `json:"amount"`
	Status     Status    `json:"status"`
	Screenshot string    `json:"screenshot,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
