package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/megamart/ledger-service/internal/app/domain/catalog"
	"github.com/megamart/ledger-service/internal/app/domain/order"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/internal/app/storage/memory"
)

func TestPlaceUsesPlanPrice(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Username: "buyer", PasswordHash: "x", ReferCode: "400000", Balance: 500})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	plan, err := store.UpdatePlan(ctx, catalog.Plan{Name: "starter", Price: 120})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	o, err := svc.Place(ctx, u.ID, plan.ID)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if o.Amount != 120 || o.Status != order.StatusPending {
		t.Fatalf("unexpected order %+v", o)
	}

	// Placement is a review record; the balance is untouched.
	after, _ := store.GetUser(ctx, u.ID)
	if after.Balance != 500 {
		t.Fatalf("balance changed to %v", after.Balance)
	}

	// Later plan edits must not move the recorded amount.
	plan.Price = 999
	if _, err := store.UpdatePlan(ctx, plan); err != nil {
		t.Fatalf("update plan: %v", err)
	}
	got, err := store.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Amount != 120 {
		t.Fatalf("order amount drifted to %v", got.Amount)
	}
}

func TestPlaceValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Username: "buyer", PasswordHash: "x", ReferCode: "400001"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := svc.Place(ctx, "missing", "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for user, got %v", err)
	}
	if _, err := svc.Place(ctx, u.ID, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for plan, got %v", err)
	}
}

func TestReview(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Username: "buyer", PasswordHash: "x", ReferCode: "400002"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	plan, err := store.UpdatePlan(ctx, catalog.Plan{Name: "starter", Price: 10})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	o, err := svc.Place(ctx, u.ID, plan.ID)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	reviewed, err := svc.Review(ctx, o.ID, order.StatusApproved)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != order.StatusApproved {
		t.Fatalf("status = %s", reviewed.Status)
	}

	if _, err := svc.Review(ctx, "missing", order.StatusCancelled); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
