// Package withdrawal defines the two withdrawal record kinds: the legacy
// wallet-details submission and the balance-bearing withdraw request. Both
// share one status vocabulary so no component compares ad-hoc strings.
package withdrawal

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a withdrawal record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalizes a caller-supplied status. Legacy spellings from
// imported data ("success", "rejected") map onto the canonical vocabulary.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, nil
	case "approved", "success":
		return StatusApproved, nil
	case "cancelled", "canceled", "rejected":
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid withdrawal status %q", raw)
	}
}

// Detail is the legacy wallet-details submission. It carries no amount and has
// no balance effect; admins use it to collect payout destinations.
type Detail struct {
	ID            string    `json:"withdrawId"`
	UserID        string    `json:"userId"`
	WalletName    string    `json:"walletName"`
	Protocol      string    `json:"protocol"`
	WalletAddress string    `json:"walletAddress"`
	Names         string    `json:"names"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Request is a withdrawal of funds. The owning user's balance is debited when
// the request is submitted; cancellation refunds exactly that amount.
type Request struct {
	ID            string     `json:"withdrawId"`
	UserID        string     `json:"userId"`
	Amount        float64    `json:"amount"`
	WalletName    string     `json:"walletName,omitempty"`
	WalletAddress string     `json:"walletAddress,omitempty"`
	Protocol      string     `json:"protocol,omitempty"`
	Names         string     `json:"names,omitempty"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
}
