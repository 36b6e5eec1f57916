package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/internal/app/storage/memory"
)

func newTestLedger(t *testing.T) (*Service, *memory.Store, user.User) {
	t.Helper()
	store := memory.New()
	svc := New(store, store, store, nil)

	u, err := store.CreateUser(context.Background(), user.User{
		Username:     "alice",
		PasswordHash: "x",
		ReferCode:    "111111",
	})
	require.NoError(t, err)
	return svc, store, u
}

func balanceOf(t *testing.T, store *memory.Store, id string) float64 {
	t.Helper()
	u, err := store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u.Balance
}

func TestDepositCreditsExactlyOnce(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	d, err := svc.SubmitDeposit(ctx, u.Username, 75, "proof.png")
	require.NoError(t, err)
	require.Equal(t, deposit.StatusPending, d.Status)
	require.Zero(t, balanceOf(t, store, u.ID))

	reviewed, err := svc.ReviewDeposit(ctx, d.ID, deposit.StatusSuccess)
	require.NoError(t, err)
	require.Equal(t, deposit.StatusSuccess, reviewed.Status)
	require.Equal(t, 75.0, balanceOf(t, store, u.ID))

	// A second review must not credit again.
	_, err = svc.ReviewDeposit(ctx, d.ID, deposit.StatusSuccess)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 75.0, balanceOf(t, store, u.ID))
}

func TestCancelledDepositNeverCredits(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	d, err := svc.SubmitDeposit(ctx, u.Username, 50, "proof.png")
	require.NoError(t, err)

	_, err = svc.ReviewDeposit(ctx, d.ID, deposit.StatusCancel)
	require.NoError(t, err)
	require.Zero(t, balanceOf(t, store, u.ID))

	// Cancelled deposits cannot be revived.
	_, err = svc.ReviewDeposit(ctx, d.ID, deposit.StatusSuccess)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Zero(t, balanceOf(t, store, u.ID))
}

func TestSubmitDepositValidation(t *testing.T) {
	svc, _, u := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.SubmitDeposit(ctx, u.Username, 0.05, "proof.png")
	require.Error(t, err)

	// Proof of payment is mandatory.
	_, err = svc.SubmitDeposit(ctx, u.Username, 10, "")
	require.Error(t, err)

	_, err = svc.SubmitDeposit(ctx, "ghost", 10, "proof.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWithdrawRequestDebitsAtSubmission(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	_, err := store.CreditBalance(ctx, u.ID, 100)
	require.NoError(t, err)

	r, newBalance, err := svc.SubmitWithdrawRequest(ctx, withdrawal.Request{UserID: u.ID, Amount: 40, WalletAddress: "addr"})
	require.NoError(t, err)
	require.Equal(t, withdrawal.StatusPending, r.Status)
	require.Equal(t, 60.0, newBalance)
	require.Equal(t, 60.0, balanceOf(t, store, u.ID))
}

func TestWithdrawRequestInsufficientBalance(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	_, err := store.CreditBalance(ctx, u.ID, 10)
	require.NoError(t, err)

	_, _, err = svc.SubmitWithdrawRequest(ctx, withdrawal.Request{UserID: u.ID, Amount: 40})
	require.ErrorIs(t, err, storage.ErrInsufficientBalance)
	require.Equal(t, 10.0, balanceOf(t, store, u.ID))

	requests, err := svc.ListWithdrawRequestsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, requests)
}

func TestCancelRefundsExactlyOnce(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	_, err := store.CreditBalance(ctx, u.ID, 100)
	require.NoError(t, err)

	r, _, err := svc.SubmitWithdrawRequest(ctx, withdrawal.Request{UserID: u.ID, Amount: 40})
	require.NoError(t, err)
	require.Equal(t, 60.0, balanceOf(t, store, u.ID))

	cancelled, err := svc.CancelWithdrawRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, withdrawal.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, 100.0, balanceOf(t, store, u.ID))

	// A second cancel must not refund again.
	_, err = svc.CancelWithdrawRequest(ctx, r.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 100.0, balanceOf(t, store, u.ID))
}

func TestApproveLeavesBalanceAlone(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	_, err := store.CreditBalance(ctx, u.ID, 100)
	require.NoError(t, err)

	r, _, err := svc.SubmitWithdrawRequest(ctx, withdrawal.Request{UserID: u.ID, Amount: 40})
	require.NoError(t, err)

	approved, err := svc.ApproveWithdrawRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, withdrawal.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.Equal(t, 60.0, balanceOf(t, store, u.ID))

	// An approved request cannot be cancelled into a refund.
	_, err = svc.CancelWithdrawRequest(ctx, r.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 60.0, balanceOf(t, store, u.ID))
}

func TestAdjustBalance(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	_, err := store.CreditBalance(ctx, u.ID, 50)
	require.NoError(t, err)

	balance, err := svc.AdjustBalance(ctx, u.ID, 20, 5)
	require.NoError(t, err)
	require.Equal(t, 35.0, balance)

	_, err = svc.AdjustBalance(ctx, u.ID, 1000, 0)
	require.ErrorIs(t, err, storage.ErrInsufficientBalance)
	require.Equal(t, 35.0, balanceOf(t, store, u.ID))

	_, err = svc.AdjustBalance(ctx, u.ID, -1, 0)
	require.Error(t, err)
}

func TestSubmitWithdrawDetail(t *testing.T) {
	svc, store, u := newTestLedger(t)
	ctx := context.Background()

	_, err := store.CreditBalance(ctx, u.ID, 100)
	require.NoError(t, err)

	d, err := svc.SubmitWithdrawDetail(ctx, withdrawal.Detail{
		UserID:        u.ID,
		WalletName:    "TrustWallet",
		Protocol:      "TRC20",
		WalletAddress: "TXYZ",
		Names:         "Alice A",
	})
	require.NoError(t, err)
	require.Equal(t, withdrawal.StatusPending, d.Status)

	// Detail submissions carry no amount and never move funds.
	require.Equal(t, 100.0, balanceOf(t, store, u.ID))

	details, err := svc.ListWithdrawDetailsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
}
