// Package order defines plan purchase orders. Order status changes carry no
// balance side effects; commission flows through task completion only.
package order

import (
	"fmt"
	"strings"
	"time"
)

// Status is the review state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid order status %q", raw)
	}
}

// Order records a user's purchase of a plan.
type Order struct {
	ID        string    `json:"orderId"`
	UserID    string    `json:"userId"`
	PlanID    string    `json:"planId"`
	Amount    float64   `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
