// Package postgres implements the storage interfaces backed by PostgreSQL.
// Balance and generation mutations are single UPDATE statements so the
// database serializes concurrent writers; status transitions are conditional
// on the current status.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/megamart/ledger-service/internal/app/domain/catalog"
	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/order"
	"github.com/megamart/ledger-service/internal/app/domain/task"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
	"github.com/megamart/ledger-service/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.DepositStore = (*Store)(nil)
var _ storage.WithdrawalStore = (*Store)(nil)
var _ storage.TaskStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func translateNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// --- UserStore --------------------------------------------------------------

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	SponsorID    string    `db:"sponsor_id"`
	ReferCode    string    `db:"refer_code"`
	Balance      float64   `db:"balance"`
	Generation   []byte    `db:"generation"`
	Remark       string    `db:"remark"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() user.User {
	u := user.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		SponsorID:    r.SponsorID,
		ReferCode:    r.ReferCode,
		Balance:      r.Balance,
		Remark:       r.Remark,
		CreatedAt:    r.CreatedAt,
	}
	if len(r.Generation) > 0 {
		_ = json.Unmarshal(r.Generation, &u.Generation)
	}
	return u
}

const userColumns = `id, username, password_hash, sponsor_id, refer_code, balance, generation, remark, created_at`

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	generationJSON, err := json.Marshal(u.Generation)
	if err != nil {
		return user.User{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, sponsor_id, refer_code, balance, generation, remark, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Username, u.PasswordHash, u.SponsorID, u.ReferCode, u.Balance, generationJSON, u.Remark, u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	if err != nil {
		return user.User{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+userColumns+` FROM users WHERE username = $1
	`, username)
	if err != nil {
		return user.User{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByReferCode(ctx context.Context, referCode string) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+userColumns+` FROM users WHERE refer_code = $1
	`, referCode)
	if err != nil {
		return user.User{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	return usersToDomain(rows), nil
}

func (s *Store) ListUsersByUsernames(ctx context.Context, usernames []string) ([]user.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM users WHERE username = ANY($1) ORDER BY created_at
	`, pq.Array(usernames))
	if err != nil {
		return nil, err
	}
	return usersToDomain(rows), nil
}

func usersToDomain(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func (s *Store) AppendGeneration(ctx context.Context, userID string, level int, username string) error {
	if level < 1 || level > user.MaxLevel {
		return fmt.Errorf("generation level %d out of range", level)
	}
	key := fmt.Sprintf("level%d", level)
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET generation = jsonb_set(generation, ARRAY[$2], COALESCE(generation->$2, '[]'::jsonb) || to_jsonb($3::text))
		WHERE id = $1
	`, userID, key, username)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreditBalance(ctx context.Context, userID string, amount float64) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE users SET balance = balance + $2 WHERE id = $1 RETURNING balance
	`, userID, amount).Scan(&balance)
	if err != nil {
		return 0, translateNotFound(err)
	}
	return balance, nil
}

func (s *Store) CreditBalanceByUsername(ctx context.Context, username string, amount float64) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE users SET balance = balance + $2 WHERE username = $1 RETURNING balance
	`, username, amount).Scan(&balance)
	if err != nil {
		return 0, translateNotFound(err)
	}
	return balance, nil
}

func (s *Store) DebitBalance(ctx context.Context, userID string, amount float64) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE users SET balance = balance - $2 WHERE id = $1 AND balance >= $2 RETURNING balance
	`, userID, amount).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, s.classifyBalanceFailure(ctx, userID)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Store) AdjustBalance(ctx context.Context, userID string, deduct, add float64) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE users SET balance = balance - $2 + $3 WHERE id = $1 AND balance >= $2 RETURNING balance
	`, userID, deduct, add).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, s.classifyBalanceFailure(ctx, userID)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// classifyBalanceFailure distinguishes a missing user from a guarded debit
// that found the user but not the funds.
func (s *Store) classifyBalanceFailure(ctx context.Context, userID string) error {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID); err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrInsufficientBalance
}

func (s *Store) UpdateUserFields(ctx context.Context, userID string, balance *float64, remark *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET balance = COALESCE($2, balance), remark = COALESCE($3, remark)
		WHERE id = $1
	`, userID, balance, remark)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- DepositStore -----------------------------------------------------------

type depositRow struct {
	ID         string    `db:"id"`
	Username   string    `db:"username"`
	Amount     float64   `db:"amount"`
	Status     string    `db:"status"`
	Screenshot string    `db:"screenshot"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r depositRow) toDomain() deposit.Deposit {
	return deposit.Deposit{
		ID:         r.ID,
		Username:   r.Username,
		Amount:     r.Amount,
		Status:     deposit.Status(r.Status),
		Screenshot: r.Screenshot,
		CreatedAt:  r.CreatedAt,
	}
}

const depositColumns = `id, username, amount, status, screenshot, created_at`

func (s *Store) CreateDeposit(ctx context.Context, d deposit.Deposit) (deposit.Deposit, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deposits (id, username, amount, status, screenshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.Username, d.Amount, string(d.Status), d.Screenshot, d.CreatedAt)
	if err != nil {
		return deposit.Deposit{}, err
	}
	return d, nil
}

func (s *Store) GetDeposit(ctx context.Context, id string) (deposit.Deposit, error) {
	var row depositRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+depositColumns+` FROM deposits WHERE id = $1
	`, id)
	if err != nil {
		return deposit.Deposit{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) SetDepositStatusFrom(ctx context.Context, id string, from, to deposit.Status) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE deposits SET status = $3 WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM deposits WHERE id = $1)`, id); err != nil {
		return false, err
	}
	if !exists {
		return false, storage.ErrNotFound
	}
	return false, nil
}

func (s *Store) ListDeposits(ctx context.Context) ([]deposit.Deposit, error) {
	return s.selectDeposits(ctx, `
		SELECT `+depositColumns+` FROM deposits ORDER BY created_at DESC
	`)
}

func (s *Store) ListDepositsByUsername(ctx context.Context, username string) ([]deposit.Deposit, error) {
	return s.selectDeposits(ctx, `
		SELECT `+depositColumns+` FROM deposits WHERE username = $1 ORDER BY created_at DESC
	`, username)
}

func (s *Store) SearchDepositsByUsername(ctx context.Context, fragment string) ([]deposit.Deposit, error) {
	return s.selectDeposits(ctx, `
		SELECT `+depositColumns+` FROM deposits WHERE username ILIKE '%' || $1 || '%' ORDER BY created_at DESC
	`, fragment)
}

func (s *Store) ListDepositsByUsernames(ctx context.Context, usernames []string, status deposit.Status) ([]deposit.Deposit, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	return s.selectDeposits(ctx, `
		SELECT `+depositColumns+` FROM deposits WHERE username = ANY($1) AND status = $2 ORDER BY created_at DESC
	`, pq.Array(usernames), string(status))
}

func (s *Store) selectDeposits(ctx context.Context, query string, args ...any) ([]deposit.Deposit, error) {
	var rows []depositRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	deposits := make([]deposit.Deposit, 0, len(rows))
	for _, r := range rows {
		deposits = append(deposits, r.toDomain())
	}
	return deposits, nil
}

// --- WithdrawalStore --------------------------------------------------------

type withdrawDetailRow struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	WalletName    string    `db:"wallet_name"`
	Protocol      string    `db:"protocol"`
	WalletAddress string    `db:"wallet_address"`
	Names         string    `db:"names"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r withdrawDetailRow) toDomain() withdrawal.Detail {
	return withdrawal.Detail{
		ID:            r.ID,
		UserID:        r.UserID,
		WalletName:    r.WalletName,
		Protocol:      r.Protocol,
		WalletAddress: r.WalletAddress,
		Names:         r.Names,
		Status:        withdrawal.Status(r.Status),
		CreatedAt:     r.CreatedAt,
	}
}

const withdrawDetailColumns = `id, user_id, wallet_name, protocol, wallet_address, names, status, created_at`

func (s *Store) CreateWithdrawDetail(ctx context.Context, d withdrawal.Detail) (withdrawal.Detail, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO withdraw_details (id, user_id, wallet_name, protocol, wallet_address, names, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.UserID, d.WalletName, d.Protocol, d.WalletAddress, d.Names, string(d.Status), d.CreatedAt)
	if err != nil {
		return withdrawal.Detail{}, err
	}
	return d, nil
}

func (s *Store) ListWithdrawDetails(ctx context.Context) ([]withdrawal.Detail, error) {
	return s.selectWithdrawDetails(ctx, `
		SELECT `+withdrawDetailColumns+` FROM withdraw_details ORDER BY created_at DESC
	`)
}

func (s *Store) ListWithdrawDetailsByUser(ctx context.Context, userID string) ([]withdrawal.Detail, error) {
	return s.selectWithdrawDetails(ctx, `
		SELECT `+withdrawDetailColumns+` FROM withdraw_details WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}

func (s *Store) selectWithdrawDetails(ctx context.Context, query string, args ...any) ([]withdrawal.Detail, error) {
	var rows []withdrawDetailRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	details := make([]withdrawal.Detail, 0, len(rows))
	for _, r := range rows {
		details = append(details, r.toDomain())
	}
	return details, nil
}

type withdrawRequestRow struct {
	ID            string       `db:"id"`
	UserID        string       `db:"user_id"`
	Amount        float64      `db:"amount"`
	WalletName    string       `db:"wallet_name"`
	WalletAddress string       `db:"wallet_address"`
	Protocol      string       `db:"protocol"`
	Names         string       `db:"names"`
	Status        string       `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
	ApprovedAt    sql.NullTime `db:"approved_at"`
	CancelledAt   sql.NullTime `db:"cancelled_at"`
}

func (r withdrawRequestRow) toDomain() withdrawal.Request {
	req := withdrawal.Request{
		ID:            r.ID,
		UserID:        r.UserID,
		Amount:        r.Amount,
		WalletName:    r.WalletName,
		WalletAddress: r.WalletAddress,
		Protocol:      r.Protocol,
		Names:         r.Names,
		Status:        withdrawal.Status(r.Status),
		CreatedAt:     r.CreatedAt,
	}
	if r.ApprovedAt.Valid {
		t := r.ApprovedAt.Time
		req.ApprovedAt = &t
	}
	if r.CancelledAt.Valid {
		t := r.CancelledAt.Time
		req.CancelledAt = &t
	}
	return req
}

const withdrawRequestColumns = `id, user_id, amount, wallet_name, wallet_address, protocol, names, status, created_at, approved_at, cancelled_at`

func (s *Store) CreateWithdrawRequest(ctx context.Context, r withdrawal.Request) (withdrawal.Request, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO withdraw_requests (id, user_id, amount, wallet_name, wallet_address, protocol, names, status, created_at, approved_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.ID, r.UserID, r.Amount, r.WalletName, r.WalletAddress, r.Protocol, r.Names, string(r.Status), r.CreatedAt, toNullTime(r.ApprovedAt), toNullTime(r.CancelledAt))
	if err != nil {
		return withdrawal.Request{}, err
	}
	return r, nil
}

func (s *Store) GetWithdrawRequest(ctx context.Context, id string) (withdrawal.Request, error) {
	var row withdrawRequestRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+withdrawRequestColumns+` FROM withdraw_requests WHERE id = $1
	`, id)
	if err != nil {
		return withdrawal.Request{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) SetRequestStatusFrom(ctx context.Context, id string, from, to withdrawal.Status, at time.Time) (bool, error) {
	stamp := at.UTC()
	var (
		result sql.Result
		err    error
	)
	switch to {
	case withdrawal.StatusApproved:
		result, err = s.db.ExecContext(ctx, `
			UPDATE withdraw_requests SET status = $3, approved_at = $4 WHERE id = $1 AND status = $2
		`, id, string(from), string(to), stamp)
	case withdrawal.StatusCancelled:
		result, err = s.db.ExecContext(ctx, `
			UPDATE withdraw_requests SET status = $3, cancelled_at = $4 WHERE id = $1 AND status = $2
		`, id, string(from), string(to), stamp)
	default:
		result, err = s.db.ExecContext(ctx, `
			UPDATE withdraw_requests SET status = $3 WHERE id = $1 AND status = $2
		`, id, string(from), string(to))
	}
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM withdraw_requests WHERE id = $1)`, id); err != nil {
		return false, err
	}
	if !exists {
		return false, storage.ErrNotFound
	}
	return false, nil
}

func (s *Store) ListWithdrawRequests(ctx context.Context) ([]withdrawal.Request, error) {
	return s.selectWithdrawRequests(ctx, `
		SELECT `+withdrawRequestColumns+` FROM withdraw_requests ORDER BY created_at DESC
	`)
}

func (s *Store) ListWithdrawRequestsByUser(ctx context.Context, userID string) ([]withdrawal.Request, error) {
	return s.selectWithdrawRequests(ctx, `
		SELECT `+withdrawRequestColumns+` FROM withdraw_requests WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}

func (s *Store) ListWithdrawRequestsByUsers(ctx context.Context, userIDs []string, status withdrawal.Status) ([]withdrawal.Request, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return s.selectWithdrawRequests(ctx, `
		SELECT `+withdrawRequestColumns+` FROM withdraw_requests WHERE user_id = ANY($1) AND status = $2 ORDER BY created_at DESC
	`, pq.Array(userIDs), string(status))
}

func (s *Store) selectWithdrawRequests(ctx context.Context, query string, args ...any) ([]withdrawal.Request, error) {
	var rows []withdrawRequestRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	requests := make([]withdrawal.Request, 0, len(rows))
	for _, r := range rows {
		requests = append(requests, r.toDomain())
	}
	return requests, nil
}

// --- TaskStore --------------------------------------------------------------

func (s *Store) GetAssignment(ctx context.Context, userID string) (task.Assignment, error) {
	var tasksRaw []byte
	err := s.db.GetContext(ctx, &tasksRaw, `
		SELECT tasks FROM task_assignments WHERE user_id = $1
	`, userID)
	if err != nil {
		return task.Assignment{}, translateNotFound(err)
	}

	a := task.Assignment{UserID: userID}
	if len(tasksRaw) > 0 {
		if err := json.Unmarshal(tasksRaw, &a.Tasks); err != nil {
			return task.Assignment{}, err
		}
	}
	return a, nil
}

func (s *Store) AppendTasks(ctx context.Context, userID string, tasks []task.Task) error {
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_assignments (user_id, tasks)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET tasks = task_assignments.tasks || EXCLUDED.tasks
	`, userID, tasksJSON)
	return err
}

func (s *Store) ReplaceTasks(ctx context.Context, userID string, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE task_assignments SET tasks = $2 WHERE user_id = $1
	`, userID, tasksJSON)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListAssignmentsByUsers(ctx context.Context, userIDs []string) ([]task.Assignment, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, tasks FROM task_assignments WHERE user_id = ANY($1)
	`, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []task.Assignment
	for rows.Next() {
		var (
			a        task.Assignment
			tasksRaw []byte
		)
		if err := rows.Scan(&a.UserID, &tasksRaw); err != nil {
			return nil, err
		}
		if len(tasksRaw) > 0 {
			if err := json.Unmarshal(tasksRaw, &a.Tasks); err != nil {
				return nil, err
			}
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// --- OrderStore -------------------------------------------------------------

type orderRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	PlanID    string    `db:"plan_id"`
	Amount    float64   `db:"amount"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (r orderRow) toDomain() order.Order {
	return order.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		PlanID:    r.PlanID,
		Amount:    r.Amount,
		Status:    order.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

const orderColumns = `id, user_id, plan_id, amount, status, created_at`

func (s *Store) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, plan_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.UserID, o.PlanID, o.Amount, string(o.Status), o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id)
	if err != nil {
		return order.Order{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) SetOrderStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE orders SET status = $2 WHERE id = $1 RETURNING `+orderColumns+`
	`, id, string(status))
	if err != nil {
		return order.Order{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	return s.selectOrders(ctx, `
		SELECT `+orderColumns+` FROM orders ORDER BY created_at
	`)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return s.selectOrders(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at
	`, userID)
}

func (s *Store) ListOrdersByUsers(ctx context.Context, userIDs []string) ([]order.Order, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return s.selectOrders(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = ANY($1) ORDER BY created_at
	`, pq.Array(userIDs))
}

func (s *Store) selectOrders(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	orders := make([]order.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toDomain())
	}
	return orders, nil
}

// --- CatalogStore -----------------------------------------------------------

type productRow struct {
	ID    string  `db:"id"`
	Name  string  `db:"name"`
	Price float64 `db:"price"`
	Img   string  `db:"img"`
}

func (s *Store) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, price, img FROM products ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	products := make([]catalog.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, catalog.Product{ID: r.ID, Name: r.Name, Price: r.Price, Img: r.Img})
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, img) VALUES ($1, $2, $3, $4)
	`, p.ID, p.Name, p.Price, p.Img)
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type planRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Price       float64 `db:"price"`
	Description string  `db:"description"`
}

func (s *Store) ListPlans(ctx context.Context) ([]catalog.Plan, error) {
	var rows []planRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, price, description FROM plans ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	plans := make([]catalog.Plan, 0, len(rows))
	for _, r := range rows {
		plans = append(plans, catalog.Plan{ID: r.ID, Name: r.Name, Price: r.Price, Description: r.Description})
	}
	return plans, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p catalog.Plan) (catalog.Plan, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (id, name, price, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, price = $3, description = $4
	`, p.ID, p.Name, p.Price, p.Description)
	if err != nil {
		return catalog.Plan{}, err
	}
	return p, nil
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type walletRow struct {
	ID            string `db:"id"`
	WalletName    string `db:"wallet_name"`
	WalletAddress string `db:"wallet_address"`
	Img           string `db:"img"`
}

func (s *Store) ListWallets(ctx context.Context) ([]catalog.Wallet, error) {
	var rows []walletRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, wallet_name, wallet_address, img FROM payment_wallets ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	wallets := make([]catalog.Wallet, 0, len(rows))
	for _, r := range rows {
		wallets = append(wallets, catalog.Wallet{ID: r.ID, WalletName: r.WalletName, WalletAddress: r.WalletAddress, Img: r.Img})
	}
	return wallets, nil
}

func (s *Store) CreateWallet(ctx context.Context, w catalog.Wallet) (catalog.Wallet, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_wallets (id, wallet_name, wallet_address, img) VALUES ($1, $2, $3, $4)
	`, w.ID, w.WalletName, w.WalletAddress, w.Img)
	if err != nil {
		return catalog.Wallet{}, err
	}
	return w, nil
}

func (s *Store) UpdateWallet(ctx context.Context, w catalog.Wallet) (catalog.Wallet, error) {
	var row walletRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE payment_wallets
		SET wallet_name = $2, wallet_address = $3, img = COALESCE(NULLIF($4, ''), img)
		WHERE id = $1
		RETURNING id, wallet_name, wallet_address, img
	`, w.ID, w.WalletName, w.WalletAddress, w.Img)
	if err != nil {
		return catalog.Wallet{}, translateNotFound(err)
	}
	return catalog.Wallet{ID: row.ID, WalletName: row.WalletName, WalletAddress: row.WalletAddress, Img: row.Img}, nil
}

func (s *Store) DeleteWallet(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM payment_wallets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type supportRow struct {
	ID               string       `db:"id"`
	TelegramUsername string       `db:"telegram_username"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        sql.NullTime `db:"updated_at"`
}

func (r supportRow) toDomain() catalog.SupportContact {
	c := catalog.SupportContact{ID: r.ID, TelegramUsername: r.TelegramUsername, CreatedAt: r.CreatedAt}
	if r.UpdatedAt.Valid {
		c.UpdatedAt = r.UpdatedAt.Time
	}
	return c
}

func (s *Store) GetSupportContact(ctx context.Context) (catalog.SupportContact, error) {
	var row supportRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, telegram_username, created_at, updated_at FROM support_contacts ORDER BY created_at DESC LIMIT 1
	`)
	if err != nil {
		return catalog.SupportContact{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ReplaceSupportContact(ctx context.Context, c catalog.SupportContact) (catalog.SupportContact, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return catalog.SupportContact{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM support_contacts`); err != nil {
		return catalog.SupportContact{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO support_contacts (id, telegram_username, created_at) VALUES ($1, $2, $3)
	`, c.ID, c.TelegramUsername, c.CreatedAt); err != nil {
		return catalog.SupportContact{}, err
	}
	if err := tx.Commit(); err != nil {
		return catalog.SupportContact{}, err
	}
	return c, nil
}

func (s *Store) UpdateSupportContact(ctx context.Context, c catalog.SupportContact) (catalog.SupportContact, error) {
	var row supportRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE support_contacts
		SET telegram_username = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, telegram_username, created_at, updated_at
	`, c.ID, c.TelegramUsername, time.Now().UTC())
	if err != nil {
		return catalog.SupportContact{}, translateNotFound(err)
	}
	return row.toDomain(), nil
}

type adminRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (catalog.AdminCredential, error) {
	var row adminRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, password_hash FROM admin_credentials WHERE username = $1
	`, username)
	if err != nil {
		return catalog.AdminCredential{}, translateNotFound(err)
	}
	return catalog.AdminCredential{ID: row.ID, Username: row.Username, PasswordHash: row.PasswordHash}, nil
}

func (s *Store) GetAdmin(ctx context.Context) (catalog.AdminCredential, error) {
	var row adminRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, password_hash FROM admin_credentials LIMIT 1
	`)
	if err != nil {
		return catalog.AdminCredential{}, translateNotFound(err)
	}
	return catalog.AdminCredential{ID: row.ID, Username: row.Username, PasswordHash: row.PasswordHash}, nil
}

func (s *Store) UpdateAdmin(ctx context.Context, username, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE admin_credentials
		SET username = COALESCE(NULLIF($1, ''), username),
		    password_hash = COALESCE(NULLIF($2, ''), password_hash)
	`, username, passwordHash)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admin_credentials (id, username, password_hash) VALUES ($1, $2, $3)
	`, uuid.NewString(), username, passwordHash)
	return err
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
