// Package team builds the downline report: the three referral generations of
// a user with their balances and the money totals the team produced.
package team

import (
	"context"
	"sort"
	"time"

	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/pkg/logger"
)

// Level is one referral generation of the report.
type Level struct {
	Level   int            `json:"level"`
	Count   int            `json:"count"`
	Members []user.Summary `json:"members"`
}

// Report is the aggregated downline view for one user. The roster behind the
// totals is the owner plus the three generations. Deposit and withdraw totals
// cover settled money only: successful deposits and approved withdraw
// requests. Order totals cover every order regardless of status.
type Report struct {
	UserID            string  `json:"userId"`
	Username          string  `json:"username"`
	Levels            []Level `json:"levels"`
	TotalMembers      int     `json:"totalMembers"`
	TotalBalance      float64 `json:"totalBalance"`
	TotalDeposit      float64 `json:"totalDeposit"`
	TotalWithdraw     float64 `json:"totalWithdraw"`
	TotalOrdersAmount float64 `json:"totalOrdersAmount"`
	TotalCommission   float64 `json:"totalCommission"`
}

// Stats is the admin dashboard roll-up across all users.
type Stats struct {
	TotalUsers         int     `json:"totalUsers"`
	TotalBalance       float64 `json:"totalBalance"`
	TotalDeposited     float64 `json:"totalDeposited"`
	TotalWithdrawn     float64 `json:"totalWithdrawn"`
	Profit             float64 `json:"profit"`
	PendingDeposits    int     `json:"pendingDeposits"`
	PendingWithdrawals int     `json:"pendingWithdrawals"`
}

// Transaction is one row of the recent activity feed.
type Transaction struct {
	Kind      string    `json:"kind"` // deposit or withdraw
	ID        string    `json:"id"`
	Reference string    `json:"reference"` // username for deposits, user id for withdrawals
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service builds team and dashboard reports.
type Service struct {
	users       storage.UserStore
	deposits    storage.DepositStore
	withdrawals storage.WithdrawalStore
	orders      storage.OrderStore
	tasks       storage.TaskStore
	log         *logger.Logger
}

// New constructs a team service.
func New(users storage.UserStore, deposits storage.DepositStore, withdrawals storage.WithdrawalStore, orders storage.OrderStore, tasks storage.TaskStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("team")
	}
	return &Service{
		users:       users,
		deposits:    deposits,
		withdrawals: withdrawals,
		orders:      orders,
		tasks:       tasks,
		log:         log,
	}
}

// Report aggregates the three generations below one user.
func (s *Service) Report(ctx context.Context, userID string) (Report, error) {
	owner, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}

	// The owner's own balance and records count toward every total.
	report := Report{UserID: owner.ID, Username: owner.Username, TotalBalance: owner.Balance}

	allUsernames := []string{owner.Username}
	for level := 1; level <= user.MaxLevel; level++ {
		usernames := owner.Generation.Level(level)
		members, err := s.users.ListUsersByUsernames(ctx, usernames)
		if err != nil {
			return Report{}, err
		}
		summaries := make([]user.Summary, 0, len(members))
		for _, m := range members {
			summaries = append(summaries, m.Summary())
			report.TotalBalance += m.Balance
		}
		report.Levels = append(report.Levels, Level{Level: level, Count: len(summaries), Members: summaries})
		report.TotalMembers += len(summaries)
		allUsernames = append(allUsernames, usernames...)
	}

	members, err := s.users.ListUsersByUsernames(ctx, allUsernames)
	if err != nil {
		return Report{}, err
	}
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}

	settled, err := s.deposits.ListDepositsByUsernames(ctx, allUsernames, deposit.StatusSuccess)
	if err != nil {
		return Report{}, err
	}
	for _, d := range settled {
		report.TotalDeposit += d.Amount
	}

	paidOut, err := s.withdrawals.ListWithdrawRequestsByUsers(ctx, memberIDs, withdrawal.StatusApproved)
	if err != nil {
		return Report{}, err
	}
	for _, r := range paidOut {
		report.TotalWithdraw += r.Amount
	}

	teamOrders, err := s.orders.ListOrdersByUsers(ctx, memberIDs)
	if err != nil {
		return Report{}, err
	}
	for _, o := range teamOrders {
		report.TotalOrdersAmount += o.Amount
	}

	assignments, err := s.tasks.ListAssignmentsByUsers(ctx, memberIDs)
	if err != nil {
		return Report{}, err
	}
	for _, a := range assignments {
		report.TotalCommission += a.CompletedCommission()
	}

	return report, nil
}

// Stats builds the admin dashboard roll-up.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.TotalUsers = len(users)
	for _, u := range users {
		stats.TotalBalance += u.Balance
	}

	deposits, err := s.deposits.ListDeposits(ctx)
	if err != nil {
		return Stats{}, err
	}
	for _, d := range deposits {
		switch d.Status {
		case deposit.StatusSuccess:
			stats.TotalDeposited += d.Amount
		case deposit.StatusPending:
			stats.PendingDeposits++
		}
	}

	requests, err := s.withdrawals.ListWithdrawRequests(ctx)
	if err != nil {
		return Stats{}, err
	}
	for _, r := range requests {
		switch r.Status {
		case withdrawal.StatusApproved:
			stats.TotalWithdrawn += r.Amount
		case withdrawal.StatusPending:
			stats.PendingWithdrawals++
		}
	}
	stats.Profit = stats.TotalDeposited - stats.TotalWithdrawn

	return stats, nil
}

// RecentTransactions merges deposits and withdraw requests into one feed,
// newest first, capped at limit.
func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 10
	}

	deposits, err := s.deposits.ListDeposits(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.withdrawals.ListWithdrawRequests(ctx)
	if err != nil {
		return nil, err
	}

	feed := make([]Transaction, 0, len(deposits)+len(requests))
	for _, d := range deposits {
		feed = append(feed, Transaction{
			Kind:      "deposit",
			ID:        d.ID,
			Reference: d.Username,
			Amount:    d.Amount,
			Status:    string(d.Status),
			CreatedAt: d.CreatedAt,
		})
	}
	for _, r := range requests {
		feed = append(feed, Transaction{
			Kind:      "withdraw",
			ID:        r.ID,
			Reference: r.UserID,
			Amount:    r.Amount,
			Status:    string(r.Status),
			CreatedAt: r.CreatedAt,
		})
	}

	sort.Slice(feed, func(i, j int) bool { return feed[i].CreatedAt.After(feed[j].CreatedAt) })
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}
