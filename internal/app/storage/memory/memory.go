// Package memory provides a thread-safe in-memory implementation of the
// storage interfaces. It is intended for tests and prototyping and keeps the
// same atomicity guarantees per document that the Postgres store provides per
// row.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/megamart/ledger-service/internal/app/domain/catalog"
	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/order"
	"github.com/megamart/ledger-service/internal/app/domain/task"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
	"github.com/megamart/ledger-service/internal/app/storage"
)

// Store is the in-memory persistence layer.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	users            map[string]user.User
	deposits         map[string]deposit.Deposit
	withdrawDetails  map[string]withdrawal.Detail
	withdrawRequests map[string]withdrawal.Request
	assignments      map[string]task.Assignment
	orders           map[string]order.Order

	products map[string]catalog.Product
	plans    map[string]catalog.Plan
	wallets  map[string]catalog.Wallet
	support  *catalog.SupportContact
	admin    *catalog.AdminCredential
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.DepositStore = (*Store)(nil)
var _ storage.WithdrawalStore = (*Store)(nil)
var _ storage.TaskStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextID:           1,
		users:            make(map[string]user.User),
		deposits:         make(map[string]deposit.Deposit),
		withdrawDetails:  make(map[string]withdrawal.Detail),
		withdrawRequests: make(map[string]withdrawal.Request),
		assignments:      make(map[string]task.Assignment),
		orders:           make(map[string]order.Order),
		products:         make(map[string]catalog.Product),
		plans:            make(map[string]catalog.Plan),
		wallets:          make(map[string]catalog.Wallet),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	s.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) GetUserByReferCode(_ context.Context, referCode string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ReferCode == referCode {
			return cloneUser(u), nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, cloneUser(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListUsersByUsernames(_ context.Context, usernames []string) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		wanted[name] = struct{}{}
	}

	result := make([]user.User, 0, len(wanted))
	for _, u := range s.users {
		if _, ok := wanted[u.Username]; ok {
			result = append(result, cloneUser(u))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) AppendGeneration(_ context.Context, userID string, level int, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	switch level {
	case 1:
		u.Generation.Level1 = append(u.Generation.Level1, username)
	case 2:
		u.Generation.Level2 = append(u.Generation.Level2, username)
	case 3:
		u.Generation.Level3 = append(u.Generation.Level3, username)
	default:
		return fmt.Errorf("generation level %d out of range", level)
	}
	s.users[userID] = u
	return nil
}

func (s *Store) CreditBalance(_ context.Context, userID string, amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	u.Balance += amount
	s.users[userID] = u
	return u.Balance, nil
}

func (s *Store) CreditBalanceByUsername(_ context.Context, username string, amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.Username == username {
			u.Balance += amount
			s.users[id] = u
			return u.Balance, nil
		}
	}
	return 0, storage.ErrNotFound
}

func (s *Store) DebitBalance(_ context.Context, userID string, amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if u.Balance < amount {
		return 0, storage.ErrInsufficientBalance
	}
	u.Balance -= amount
	s.users[userID] = u
	return u.Balance, nil
}

func (s *Store) AdjustBalance(_ context.Context, userID string, deduct, add float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if u.Balance < deduct {
		return 0, storage.ErrInsufficientBalance
	}
	u.Balance = u.Balance - deduct + add
	s.users[userID] = u
	return u.Balance, nil
}

func (s *Store) UpdateUserFields(_ context.Context, userID string, balance *float64, remark *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if balance != nil {
		u.Balance = *balance
	}
	if remark != nil {
		u.Remark = *remark
	}
	s.users[userID] = u
	return nil
}

// DepositStore implementation -------------------------------------------------

func (s *Store) CreateDeposit(_ context.Context, d deposit.Deposit) (deposit.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = s.nextIDLocked()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.deposits[d.ID] = d
	return d, nil
}

func (s *Store) GetDeposit(_ context.Context, id string) (deposit.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deposits[id]
	if !ok {
		return deposit.Deposit{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) SetDepositStatusFrom(_ context.Context, id string, from, to deposit.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return false, storage.ErrNotFound
	}
	if d.Status != from {
		return false, nil
	}
	d.Status = to
	s.deposits[id] = d
	return true, nil
}

func (s *Store) ListDeposits(_ context.Context) ([]deposit.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]deposit.Deposit, 0, len(s.deposits))
	for _, d := range s.deposits {
		result = append(result, d)
	}
	sortDepositsNewestFirst(result)
	return result, nil
}

func (s *Store) ListDepositsByUsername(_ context.Context, username string) ([]deposit.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []deposit.Deposit
	for _, d := range s.deposits {
		if d.Username == username {
			result = append(result, d)
		}
	}
	sortDepositsNewestFirst(result)
	return result, nil
}

func (s *Store) SearchDepositsByUsername(_ context.Context, fragment string) ([]deposit.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(fragment)
	var result []deposit.Deposit
	for _, d := range s.deposits {
		if strings.Contains(strings.ToLower(d.Username), needle) {
			result = append(result, d)
		}
	}
	sortDepositsNewestFirst(result)
	return result, nil
}

func (s *Store) ListDepositsByUsernames(_ context.Context, usernames []string, status deposit.Status) ([]deposit.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		wanted[name] = struct{}{}
	}

	var result []deposit.Deposit
	for _, d := range s.deposits {
		if _, ok := wanted[d.Username]; ok && d.Status == status {
			result = append(result, d)
		}
	}
	sortDepositsNewestFirst(result)
	return result, nil
}

// WithdrawalStore implementation ----------------------------------------------

func (s *Store) CreateWithdrawDetail(_ context.Context, d withdrawal.Detail) (withdrawal.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = s.nextIDLocked()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.withdrawDetails[d.ID] = d
	return d, nil
}

func (s *Store) ListWithdrawDetails(_ context.Context) ([]withdrawal.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]withdrawal.Detail, 0, len(s.withdrawDetails))
	for _, d := range s.withdrawDetails {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListWithdrawDetailsByUser(_ context.Context, userID string) ([]withdrawal.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []withdrawal.Detail
	for _, d := range s.withdrawDetails {
		if d.UserID == userID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) CreateWithdrawRequest(_ context.Context, r withdrawal.Request) (withdrawal.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.nextIDLocked()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.withdrawRequests[r.ID] = cloneRequest(r)
	return cloneRequest(r), nil
}

func (s *Store) GetWithdrawRequest(_ context.Context, id string) (withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.withdrawRequests[id]
	if !ok {
		return withdrawal.Request{}, storage.ErrNotFound
	}
	return cloneRequest(r), nil
}

func (s *Store) SetRequestStatusFrom(_ context.Context, id string, from, to withdrawal.Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.withdrawRequests[id]
	if !ok {
		return false, storage.ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	stamp := at.UTC()
	switch to {
	case withdrawal.StatusApproved:
		r.ApprovedAt = &stamp
	case withdrawal.StatusCancelled:
		r.CancelledAt = &stamp
	}
	s.withdrawRequests[id] = r
	return true, nil
}

func (s *Store) ListWithdrawRequests(_ context.Context) ([]withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]withdrawal.Request, 0, len(s.withdrawRequests))
	for _, r := range s.withdrawRequests {
		result = append(result, cloneRequest(r))
	}
	sortRequestsNewestFirst(result)
	return result, nil
}

func (s *Store) ListWithdrawRequestsByUser(_ context.Context, userID string) ([]withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []withdrawal.Request
	for _, r := range s.withdrawRequests {
		if r.UserID == userID {
			result = append(result, cloneRequest(r))
		}
	}
	sortRequestsNewestFirst(result)
	return result, nil
}

func (s *Store) ListWithdrawRequestsByUsers(_ context.Context, userIDs []string, status withdrawal.Status) ([]withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	var result []withdrawal.Request
	for _, r := range s.withdrawRequests {
		if _, ok := wanted[r.UserID]; ok && r.Status == status {
			result = append(result, cloneRequest(r))
		}
	}
	sortRequestsNewestFirst(result)
	return result, nil
}

// TaskStore implementation ----------------------------------------------------

func (s *Store) GetAssignment(_ context.Context, userID string) (task.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assignments[userID]
	if !ok {
		return task.Assignment{}, storage.ErrNotFound
	}
	return cloneAssignment(a), nil
}

func (s *Store) AppendTasks(_ context.Context, userID string, tasks []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[userID]
	if !ok {
		a = task.Assignment{UserID: userID}
	}
	a.Tasks = append(a.Tasks, tasks...)
	s.assignments[userID] = cloneAssignment(a)
	return nil
}

func (s *Store) ReplaceTasks(_ context.Context, userID string, tasks []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[userID]
	if !ok {
		return storage.ErrNotFound
	}
	a.Tasks = append([]task.Task(nil), tasks...)
	s.assignments[userID] = a
	return nil
}

func (s *Store) ListAssignmentsByUsers(_ context.Context, userIDs []string) ([]task.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []task.Assignment
	for _, id := range userIDs {
		if a, ok := s.assignments[id]; ok {
			result = append(result, cloneAssignment(a))
		}
	}
	return result, nil
}

// OrderStore implementation ---------------------------------------------------

func (s *Store) CreateOrder(_ context.Context, o order.Order) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = s.nextIDLocked()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	return o, nil
}

func (s *Store) SetOrderStatus(_ context.Context, id string, status order.Status) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	o.Status = status
	s.orders[id] = o
	return o, nil
}

func (s *Store) ListOrders(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListOrdersByUsers(_ context.Context, userIDs []string) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	var result []order.Order
	for _, o := range s.orders {
		if _, ok := wanted[o.UserID]; ok {
			result = append(result, o)
		}
	}
	return result, nil
}

// CatalogStore implementation -------------------------------------------------

func (s *Store) ListProducts(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListPlans(_ context.Context) ([]catalog.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) UpdatePlan(_ context.Context, p catalog.Plan) (catalog.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
		s.plans[p.ID] = p
		return p, nil
	}
	s.plans[p.ID] = p
	return p, nil
}

func (s *Store) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *Store) ListWallets(_ context.Context) ([]catalog.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) CreateWallet(_ context.Context, w catalog.Wallet) (catalog.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = s.nextIDLocked()
	}
	s.wallets[w.ID] = w
	return w, nil
}

func (s *Store) UpdateWallet(_ context.Context, w catalog.Wallet) (catalog.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.wallets[w.ID]
	if !ok {
		return catalog.Wallet{}, storage.ErrNotFound
	}
	if w.Img == "" {
		w.Img = existing.Img
	}
	s.wallets[w.ID] = w
	return w, nil
}

func (s *Store) DeleteWallet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.wallets, id)
	return nil
}

func (s *Store) GetSupportContact(_ context.Context) (catalog.SupportContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.support == nil {
		return catalog.SupportContact{}, storage.ErrNotFound
	}
	return *s.support, nil
}

func (s *Store) ReplaceSupportContact(_ context.Context, c catalog.SupportContact) (catalog.SupportContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.support = &c
	return c, nil
}

func (s *Store) UpdateSupportContact(_ context.Context, c catalog.SupportContact) (catalog.SupportContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.support == nil || s.support.ID != c.ID {
		return catalog.SupportContact{}, storage.ErrNotFound
	}
	c.CreatedAt = s.support.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.support = &c
	return c, nil
}

func (s *Store) GetAdminByUsername(_ context.Context, username string) (catalog.AdminCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.admin == nil || s.admin.Username != username {
		return catalog.AdminCredential{}, storage.ErrNotFound
	}
	return *s.admin, nil
}

func (s *Store) GetAdmin(_ context.Context) (catalog.AdminCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.admin == nil {
		return catalog.AdminCredential{}, storage.ErrNotFound
	}
	return *s.admin, nil
}

func (s *Store) UpdateAdmin(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.admin == nil {
		s.admin = &catalog.AdminCredential{ID: s.nextIDLocked()}
	}
	if username != "" {
		s.admin.Username = username
	}
	if passwordHash != "" {
		s.admin.PasswordHash = passwordHash
	}
	return nil
}

// Helpers ---------------------------------------------------------------------

func cloneUser(u user.User) user.User {
	u.Generation.Level1 = append([]string(nil), u.Generation.Level1...)
	u.Generation.Level2 = append([]string(nil), u.Generation.Level2...)
	u.Generation.Level3 = append([]string(nil), u.Generation.Level3...)
	return u
}

func cloneRequest(r withdrawal.Request) withdrawal.Request {
	if r.ApprovedAt != nil {
		t := *r.ApprovedAt
		r.ApprovedAt = &t
	}
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		r.CancelledAt = &t
	}
	return r
}

func cloneAssignment(a task.Assignment) task.Assignment {
	tasks := make([]task.Task, len(a.Tasks))
	copy(tasks, a.Tasks)
	for i := range tasks {
		if tasks[i].CompletedDate != nil {
			t := *tasks[i].CompletedDate
			tasks[i].CompletedDate = &t
		}
	}
	a.Tasks = tasks
	return a
}

func sortDepositsNewestFirst(deposits []deposit.Deposit) {
	sort.Slice(deposits, func(i, j int) bool { return deposits[i].CreatedAt.After(deposits[j].CreatedAt) })
}

func sortRequestsNewestFirst(requests []withdrawal.Request) {
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
}
