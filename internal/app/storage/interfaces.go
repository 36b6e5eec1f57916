// Package storage defines the persistence contracts for the ledger service.
// Implementations must make every balance mutation and generation append a
// single atomic operation against the stored value; read-modify-write of
// whole documents is not acceptable for those fields.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/megamart/ledger-service/internal/app/domain/catalog"
	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/order"
	"github.com/megamart/ledger-service/internal/app/domain/task"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
)

// ErrNotFound reports an absent document. Services translate it into their
// own taxonomy; it must not leak driver-specific sentinel errors.
var ErrNotFound = errors.New("not found")

// ErrInsufficientBalance reports a conditional debit that would have driven a
// balance negative. The store applies no change in that case.
var ErrInsufficientBalance = errors.New("insufficient balance")

// UserStore persists member accounts and their referral generations.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	GetUserByReferCode(ctx context.Context, referCode string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	ListUsersByUsernames(ctx context.Context, usernames []string) ([]user.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)

	// AppendGeneration atomically appends username to the given user's
	// generation list for a 1-based level.
	AppendGeneration(ctx context.Context, userID string, level int, username string) error

	// CreditBalance atomically increments a balance and returns the new value.
	CreditBalance(ctx context.Context, userID string, amount float64) (float64, error)
	// CreditBalanceByUsername credits the user owning the given username.
	CreditBalanceByUsername(ctx context.Context, username string, amount float64) (float64, error)
	// DebitBalance atomically decrements a balance, failing with
	// ErrInsufficientBalance (and applying nothing) when balance < amount.
	DebitBalance(ctx context.Context, userID string, amount float64) (float64, error)
	// AdjustBalance applies balance = balance - deduct + add as one update,
	// failing with ErrInsufficientBalance when balance < deduct.
	AdjustBalance(ctx context.Context, userID string, deduct, add float64) (float64, error)

	// UpdateUserFields overwrites balance and/or remark (admin operation).
	UpdateUserFields(ctx context.Context, userID string, balance *float64, remark *string) error
}

// DepositStore persists deposit records.
type DepositStore interface {
	CreateDeposit(ctx context.Context, d deposit.Deposit) (deposit.Deposit, error)
	GetDeposit(ctx context.Context, id string) (deposit.Deposit, error)
	// SetDepositStatusFrom transitions status only when the current status
	// matches from, reporting whether the transition was applied. A false
	// result with nil error means the record exists in some other status.
	SetDepositStatusFrom(ctx context.Context, id string, from, to deposit.Status) (bool, error)
	ListDeposits(ctx context.Context) ([]deposit.Deposit, error)
	ListDepositsByUsername(ctx context.Context, username string) ([]deposit.Deposit, error)
	SearchDepositsByUsername(ctx context.Context, fragment string) ([]deposit.Deposit, error)
	ListDepositsByUsernames(ctx context.Context, usernames []string, status deposit.Status) ([]deposit.Deposit, error)
}

// WithdrawalStore persists both withdrawal record kinds.
type WithdrawalStore interface {
	CreateWithdrawDetail(ctx context.Context, d withdrawal.Detail) (withdrawal.Detail, error)
	ListWithdrawDetails(ctx context.Context) ([]withdrawal.Detail, error)
	ListWithdrawDetailsByUser(ctx context.Context, userID string) ([]withdrawal.Detail, error)

	CreateWithdrawRequest(ctx context.Context, r withdrawal.Request) (withdrawal.Request, error)
	GetWithdrawRequest(ctx context.Context, id string) (withdrawal.Request, error)
	// SetRequestStatusFrom transitions status and stamps the transition time
	// only when the current status matches from, reporting whether the
	// transition was applied.
	SetRequestStatusFrom(ctx context.Context, id string, from, to withdrawal.Status, at time.Time) (bool, error)
	ListWithdrawRequests(ctx context.Context) ([]withdrawal.Request, error)
	ListWithdrawRequestsByUser(ctx context.Context, userID string) ([]withdrawal.Request, error)
	ListWithdrawRequestsByUsers(ctx context.Context, userIDs []string, status withdrawal.Status) ([]withdrawal.Request, error)
}

// TaskStore persists per-user task assignments as single documents; updates
// replace the task list of one user atomically.
type TaskStore interface {
	GetAssignment(ctx context.Context, userID string) (task.Assignment, error)
	AppendTasks(ctx context.Context, userID string, tasks []task.Task) error
	ReplaceTasks(ctx context.Context, userID string, tasks []task.Task) error
	ListAssignmentsByUsers(ctx context.Context, userIDs []string) ([]task.Assignment, error)
}

// OrderStore persists orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, o order.Order) (order.Order, error)
	GetOrder(ctx context.Context, id string) (order.Order, error)
	SetOrderStatus(ctx context.Context, id string, status order.Status) (order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]order.Order, error)
	ListOrdersByUsers(ctx context.Context, userIDs []string) ([]order.Order, error)
}

// CatalogStore persists the invariant-free documents.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListPlans(ctx context.Context) ([]catalog.Plan, error)
	UpdatePlan(ctx context.Context, p catalog.Plan) (catalog.Plan, error)
	DeletePlan(ctx context.Context, id string) error

	ListWallets(ctx context.Context) ([]catalog.Wallet, error)
	CreateWallet(ctx context.Context, w catalog.Wallet) (catalog.Wallet, error)
	UpdateWallet(ctx context.Context, w catalog.Wallet) (catalog.Wallet, error)
	DeleteWallet(ctx context.Context, id string) error

	GetSupportContact(ctx context.Context) (catalog.SupportContact, error)
	ReplaceSupportContact(ctx context.Context, c catalog.SupportContact) (catalog.SupportContact, error)
	UpdateSupportContact(ctx context.Context, c catalog.SupportContact) (catalog.SupportContact, error)

	GetAdminByUsername(ctx context.Context, username string) (catalog.AdminCredential, error)
	GetAdmin(ctx context.Context) (catalog.AdminCredential, error)
	UpdateAdmin(ctx context.Context, username, passwordHash string) error
}
