package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/megamart/ledger-service/internal/app/domain/task"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/internal/app/storage/memory"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	store := memory.New()
	svc := New(store, store, nil)

	u, err := store.CreateUser(context.Background(), user.User{Username: "worker", PasswordHash: "x", ReferCode: "222222"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return svc, u.ID
}

func TestAssignRejectsDuplicateTaskNumber(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Assign(ctx, userID, []task.Task{
		{TaskNumber: 1, Title: "first", Commission: 2},
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Clash with an existing task.
	_, err = svc.Assign(ctx, userID, []task.Task{{TaskNumber: 1, Commission: 1}})
	if !errors.Is(err, ErrDuplicateTaskNumber) {
		t.Fatalf("expected ErrDuplicateTaskNumber, got %v", err)
	}

	// Clash within the batch itself.
	_, err = svc.Assign(ctx, userID, []task.Task{
		{TaskNumber: 2, Commission: 1},
		{TaskNumber: 2, Commission: 1},
	})
	if !errors.Is(err, ErrDuplicateTaskNumber) {
		t.Fatalf("expected ErrDuplicateTaskNumber, got %v", err)
	}
}

func TestAssignForcesPendingStatus(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()

	a, err := svc.Assign(ctx, userID, []task.Task{{TaskNumber: 7, Status: task.StatusComplete, Commission: 3}})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Tasks[0].Status != task.StatusPending || a.Tasks[0].CompletedDate != nil {
		t.Fatalf("expected forced pending, got %+v", a.Tasks[0])
	}
}

func TestSetStatusStampsAndClearsCompletion(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Assign(ctx, userID, []task.Task{{TaskNumber: 1, Commission: 5}}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	a, err := svc.SetStatus(ctx, userID, 1, task.StatusComplete)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Tasks[0].CompletedDate == nil {
		t.Fatal("expected completion stamp")
	}

	a, err = svc.SetStatus(ctx, userID, 1, task.StatusPending)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if a.Tasks[0].CompletedDate != nil {
		t.Fatal("expected cleared completion stamp")
	}

	if _, err := svc.SetStatus(ctx, userID, 99, task.StatusComplete); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestRetentionSweepPurgesOldestCompleted(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()

	var batch []task.Task
	for i := 1; i <= 25; i++ {
		batch = append(batch, task.Task{TaskNumber: i, Title: fmt.Sprintf("task %d", i), Commission: 1})
	}
	if _, err := svc.Assign(ctx, userID, batch); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Complete 1..19: below the threshold, nothing is purged.
	for i := 1; i <= 19; i++ {
		if _, err := svc.SetStatus(ctx, userID, i, task.StatusComplete); err != nil {
			t.Fatalf("complete %d: %v", i, err)
		}
	}
	a, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(a.Tasks) != 25 {
		t.Fatalf("expected 25 tasks before the sweep, got %d", len(a.Tasks))
	}

	// The twentieth completion hits the threshold and purges all twenty.
	a, err = svc.SetStatus(ctx, userID, 20, task.StatusComplete)
	if err != nil {
		t.Fatalf("complete 20: %v", err)
	}
	if len(a.Tasks) != 5 {
		t.Fatalf("expected 5 tasks after the sweep, got %d", len(a.Tasks))
	}
	for i, want := range []int{21, 22, 23, 24, 25} {
		if a.Tasks[i].TaskNumber != want {
			t.Fatalf("task %d: expected number %d, got %d", i, want, a.Tasks[i].TaskNumber)
		}
		if a.Tasks[i].Status != task.StatusPending {
			t.Fatalf("task %d: expected pending survivor, got %s", i, a.Tasks[i].Status)
		}
	}
}

func TestCompletionCreditsCommissionOnce(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Username: "earner", PasswordHash: "x", ReferCode: "333333"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := svc.Assign(ctx, u.ID, []task.Task{{TaskNumber: 1, Commission: 5}}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	balance := func() float64 {
		t.Helper()
		got, err := store.GetUser(ctx, u.ID)
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		return got.Balance
	}

	if _, err := svc.SetStatus(ctx, u.ID, 1, task.StatusComplete); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if balance() != 5 {
		t.Fatalf("balance after completion = %v", balance())
	}

	// Completing again is a no-op for the balance.
	if _, err := svc.SetStatus(ctx, u.ID, 1, task.StatusComplete); err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if balance() != 5 {
		t.Fatalf("balance after re-completion = %v", balance())
	}

	// A revert keeps the credit, and a later completion does not pay again.
	if _, err := svc.SetStatus(ctx, u.ID, 1, task.StatusPending); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if _, err := svc.SetStatus(ctx, u.ID, 1, task.StatusComplete); err != nil {
		t.Fatalf("complete after revert: %v", err)
	}
	if balance() != 5 {
		t.Fatalf("balance after revert cycle = %v", balance())
	}
}

func TestGetWithoutAssignment(t *testing.T) {
	svc, userID := newTestService(t)

	a, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.UserID != userID || len(a.Tasks) != 0 {
		t.Fatalf("expected empty assignment, got %+v", a)
	}
}

func TestAssignUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Assign(context.Background(), "missing", []task.Task{{TaskNumber: 1}})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
