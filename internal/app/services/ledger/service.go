// Package ledger owns every balance mutation: deposit review, withdrawal
// submission and review, and admin adjustments. No other service writes
// balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/pkg/logger"
)

// ErrInvalidTransition reports a status change on a record that already left
// the pending state. The record is unchanged.
var ErrInvalidTransition = errors.New("record is not pending")

// Service is the balance ledger.
type Service struct {
	users       storage.UserStore
	deposits    storage.DepositStore
	withdrawals storage.WithdrawalStore
	log         *logger.Logger

	now func() time.Time
}

// New constructs a ledger service.
func New(users storage.UserStore, deposits storage.DepositStore, withdrawals storage.WithdrawalStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ledger")
	}
	return &Service{
		users:       users,
		deposits:    deposits,
		withdrawals: withdrawals,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// --- Deposits ---------------------------------------------------------------

// SubmitDeposit records a pending top-up for review. The balance is not
// touched until the deposit is marked successful.
func (s *Service) SubmitDeposit(ctx context.Context, username string, amount float64, screenshot string) (deposit.Deposit, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return deposit.Deposit{}, fmt.Errorf("username is required")
	}
	if amount < deposit.MinAmount {
		return deposit.Deposit{}, fmt.Errorf("amount must be at least %v", deposit.MinAmount)
	}
	if strings.TrimSpace(screenshot) == "" {
		return deposit.Deposit{}, fmt.Errorf("payment proof is required")
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return deposit.Deposit{}, err
	}

	d, err := s.deposits.CreateDeposit(ctx, deposit.Deposit{
		Username:   username,
		Amount:     amount,
		Status:     deposit.StatusPending,
		Screenshot: screenshot,
	})
	if err != nil {
		return deposit.Deposit{}, err
	}
	s.log.WithField("deposit_id", d.ID).
		WithField("username", username).
		WithField("amount", amount).
		Info("deposit submitted")
	return d, nil
}

// ReviewDeposit moves a pending deposit to success or cancel. Success credits
// the owner exactly once; the conditional transition makes a repeated review
// fail with ErrInvalidTransition instead of crediting again.
func (s *Service) ReviewDeposit(ctx context.Context, id string, to deposit.Status) (deposit.Deposit, error) {
	if to != deposit.StatusSuccess && to != deposit.StatusCancel {
		return deposit.Deposit{}, fmt.Errorf("deposit can only move to %s or %s", deposit.StatusSuccess, deposit.StatusCancel)
	}

	applied, err := s.deposits.SetDepositStatusFrom(ctx, id, deposit.StatusPending, to)
	if err != nil {
		return deposit.Deposit{}, err
	}
	if !applied {
		return deposit.Deposit{}, ErrInvalidTransition
	}

	d, err := s.deposits.GetDeposit(ctx, id)
	if err != nil {
		return deposit.Deposit{}, err
	}

	if to == deposit.StatusSuccess {
		balance, err := s.users.CreditBalanceByUsername(ctx, d.Username, d.Amount)
		if err != nil {
			s.log.WithError(err).
				WithField("deposit_id", id).
				WithField("username", d.Username).
				Error("deposit approved but credit failed")
			return deposit.Deposit{}, err
		}
		s.log.WithField("deposit_id", id).
			WithField("username", d.Username).
			WithField("amount", d.Amount).
			WithField("balance", balance).
			Info("deposit credited")
	} else {
		s.log.WithField("deposit_id", id).Info("deposit cancelled")
	}
	return d, nil
}

// ListDeposits returns all deposits, newest first.
func (s *Service) ListDeposits(ctx context.Context) ([]deposit.Deposit, error) {
	return s.deposits.ListDeposits(ctx)
}

// ListDepositsByUsername returns one user's deposits, newest first.
func (s *Service) ListDepositsByUsername(ctx context.Context, username string) ([]deposit.Deposit, error) {
	return s.deposits.ListDepositsByUsername(ctx, username)
}

// SearchDeposits returns deposits whose username contains the fragment.
func (s *Service) SearchDeposits(ctx context.Context, fragment string) ([]deposit.Deposit, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return s.deposits.ListDeposits(ctx)
	}
	return s.deposits.SearchDepositsByUsername(ctx, fragment)
}

// --- Withdraw details (legacy) ----------------------------------------------

// SubmitWithdrawDetail records a payout destination. It carries no amount and
// never touches the balance.
func (s *Service) SubmitWithdrawDetail(ctx context.Context, d withdrawal.Detail) (withdrawal.Detail, error) {
	if strings.TrimSpace(d.UserID) == "" {
		return withdrawal.Detail{}, fmt.Errorf("userId is required")
	}
	if strings.TrimSpace(d.WalletAddress) == "" {
		return withdrawal.Detail{}, fmt.Errorf("walletAddress is required")
	}
	if _, err := s.users.GetUser(ctx, d.UserID); err != nil {
		return withdrawal.Detail{}, err
	}

	d.Status = withdrawal.StatusPending
	created, err := s.withdrawals.CreateWithdrawDetail(ctx, d)
	if err != nil {
		return withdrawal.Detail{}, err
	}
	s.log.WithField("withdraw_id", created.ID).
		WithField("user_id", created.UserID).
		Info("withdraw detail submitted")
	return created, nil
}

// ListWithdrawDetails returns all payout destinations, newest first.
func (s *Service) ListWithdrawDetails(ctx context.Context) ([]withdrawal.Detail, error) {
	return s.withdrawals.ListWithdrawDetails(ctx)
}

// ListWithdrawDetailsByUser returns one user's payout destinations.
func (s *Service) ListWithdrawDetailsByUser(ctx context.Context, userID string) ([]withdrawal.Detail, error) {
	return s.withdrawals.ListWithdrawDetailsByUser(ctx, userID)
}

// --- Withdraw requests --------------------------------------------------------

// SubmitWithdrawRequest debits the user immediately and records a pending
// request for that amount, returning the request and the balance after the
// debit. An insufficient balance rejects the request with
// storage.ErrInsufficientBalance and changes nothing.
func (s *Service) SubmitWithdrawRequest(ctx context.Context, r withdrawal.Request) (withdrawal.Request, float64, error) {
	if strings.TrimSpace(r.UserID) == "" {
		return withdrawal.Request{}, 0, fmt.Errorf("userId is required")
	}
	if r.Amount <= 0 {
		return withdrawal.Request{}, 0, fmt.Errorf("amount must be positive")
	}

	balance, err := s.users.DebitBalance(ctx, r.UserID, r.Amount)
	if err != nil {
		return withdrawal.Request{}, 0, err
	}

	r.Status = withdrawal.StatusPending
	r.ApprovedAt = nil
	r.CancelledAt = nil
	created, err := s.withdrawals.CreateWithdrawRequest(ctx, r)
	if err != nil {
		// The debit already happened; put the funds back.
		if _, refundErr := s.users.CreditBalance(ctx, r.UserID, r.Amount); refundErr != nil {
			s.log.WithError(refundErr).
				WithField("user_id", r.UserID).
				WithField("amount", r.Amount).
				Error("refund after failed request insert also failed")
		}
		return withdrawal.Request{}, 0, err
	}

	s.log.WithField("withdraw_id", created.ID).
		WithField("user_id", created.UserID).
		WithField("amount", created.Amount).
		WithField("balance", balance).
		Info("withdraw request submitted")
	return created, balance, nil
}

// ApproveWithdrawRequest marks a pending request paid out. The funds left the
// balance at submission, so approval has no balance effect.
func (s *Service) ApproveWithdrawRequest(ctx context.Context, id string) (withdrawal.Request, error) {
	applied, err := s.withdrawals.SetRequestStatusFrom(ctx, id, withdrawal.StatusPending, withdrawal.StatusApproved, s.now())
	if err != nil {
		return withdrawal.Request{}, err
	}
	if !applied {
		return withdrawal.Request{}, ErrInvalidTransition
	}
	r, err := s.withdrawals.GetWithdrawRequest(ctx, id)
	if err != nil {
		return withdrawal.Request{}, err
	}
	s.log.WithField("withdraw_id", id).
		WithField("user_id", r.UserID).
		WithField("amount", r.Amount).
		Info("withdraw request approved")
	return r, nil
}

// CancelWithdrawRequest cancels a pending request and refunds exactly the
// debited amount. The conditional transition guarantees the refund happens at
// most once even under concurrent cancellations.
func (s *Service) CancelWithdrawRequest(ctx context.Context, id string) (withdrawal.Request, error) {
	applied, err := s.withdrawals.SetRequestStatusFrom(ctx, id, withdrawal.StatusPending, withdrawal.StatusCancelled, s.now())
	if err != nil {
		return withdrawal.Request{}, err
	}
	if !applied {
		return withdrawal.Request{}, ErrInvalidTransition
	}

	r, err := s.withdrawals.GetWithdrawRequest(ctx, id)
	if err != nil {
		return withdrawal.Request{}, err
	}
	balance, err := s.users.CreditBalance(ctx, r.UserID, r.Amount)
	if err != nil {
		s.log.WithError(err).
			WithField("withdraw_id", id).
			WithField("user_id", r.UserID).
			WithField("amount", r.Amount).
			Error("cancel recorded but refund failed")
		return withdrawal.Request{}, err
	}
	s.log.WithField("withdraw_id", id).
		WithField("user_id", r.UserID).
		WithField("amount", r.Amount).
		WithField("balance", balance).
		Info("withdraw request cancelled and refunded")
	return r, nil
}

// ListWithdrawRequests returns all requests, newest first.
func (s *Service) ListWithdrawRequests(ctx context.Context) ([]withdrawal.Request, error) {
	return s.withdrawals.ListWithdrawRequests(ctx)
}

// ListWithdrawRequestsByUser returns one user's requests, newest first.
func (s *Service) ListWithdrawRequestsByUser(ctx context.Context, userID string) ([]withdrawal.Request, error) {
	return s.withdrawals.ListWithdrawRequestsByUser(ctx, userID)
}

// --- Admin adjustments --------------------------------------------------------

// AdjustBalance applies balance = balance - deduct + add in one step. Both
// legs must be non-negative and the deduction is guarded against overdraft.
func (s *Service) AdjustBalance(ctx context.Context, userID string, deduct, add float64) (float64, error) {
	if deduct < 0 || add < 0 {
		return 0, fmt.Errorf("deduct and add must not be negative")
	}
	balance, err := s.users.AdjustBalance(ctx, userID, deduct, add)
	if err != nil {
		return 0, err
	}
	s.log.WithField("user_id", userID).
		WithField("deduct", deduct).
		WithField("add", add).
		WithField("balance", balance).
		Info("balance adjusted")
	return balance, nil
}
