// Package user defines the member account model and its referral generations.
package user

import "time"

// Generation holds the usernames that joined through this user's referral
// chain, grouped by sponsor distance. Lists are append-only; insertion order
// is join order.
type Generation struct {
	Level1 []string `json:"level1,omitempty"`
	Level2 []string `json:"level2,omitempty"`
	Level3 []string `json:"level3,omitempty"`
}

// MaxLevel is the deepest sponsor generation that registration propagates to.
const MaxLevel = 3

// Level returns the list for a 1-based generation level.
func (g Generation) Level(level int) []string {
	switch level {
	case 1:
		return g.Level1
	case 2:
		return g.Level2
	case 3:
		return g.Level3
	default:
		return nil
	}
}

// User is a registered member. Balance is owned by the ledger service; no
// other component may write it.
type User struct {
	ID           string     `json:"userId"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	SponsorID    string     `json:"sponsorId,omitempty"` // sponsor's refer code; empty only for a bootstrap root
	ReferCode    string     `json:"referCode"`
	Balance      float64    `json:"balance"`
	Generation   Generation `json:"generation"`
	Remark       string     `json:"remark,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Summary is the balance-only projection used by team reports and bulk
// username lookups.
type Summary struct {
	ID       string  `json:"userId"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// Summary returns the projection of the user.
func (u User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Balance: u.Balance}
}
