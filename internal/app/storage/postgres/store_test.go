package postgres

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/internal/platform/migrations"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestDebitBalanceInsufficient(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance - $2 WHERE id = $1 AND balance >= $2 RETURNING balance`)).
		WithArgs("u1", 50.0).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := store.DebitBalance(context.Background(), "u1", 50)
	if !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDebitBalanceUnknownUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance - $2 WHERE id = $1 AND balance >= $2 RETURNING balance`)).
		WithArgs("missing", 10.0).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := store.DebitBalance(context.Background(), "missing", 10)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetDepositStatusFromSkipsWrongStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE deposits SET status = $3 WHERE id = $1 AND status = $2`)).
		WithArgs("d1", "pending", "success").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM deposits WHERE id = $1)`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	applied, err := store.SetDepositStatusFrom(context.Background(), "d1", deposit.StatusPending, deposit.StatusSuccess)
	if err != nil {
		t.Fatalf("set deposit status: %v", err)
	}
	if applied {
		t.Fatal("expected transition to be skipped")
	}
}

func TestSetRequestStatusFromStampsApproval(t *testing.T) {
	store, mock := newMockStore(t)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE withdraw_requests SET status = $3, approved_at = $4 WHERE id = $1 AND status = $2`)).
		WithArgs("w1", "pending", "approved", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := store.SetRequestStatusFrom(context.Background(), "w1", withdrawal.StatusPending, withdrawal.StatusApproved, at)
	if err != nil {
		t.Fatalf("set request status: %v", err)
	}
	if !applied {
		t.Fatal("expected transition to apply")
	}
}

func TestAppendGenerationRejectsBadLevel(t *testing.T) {
	store, _ := newMockStore(t)

	if err := store.AppendGeneration(context.Background(), "u1", 4, "member"); err == nil {
		t.Fatal("expected error for level beyond the generation depth")
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db.DB); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)

	sponsor, err := store.CreateUser(ctx, user.User{Username: "it-sponsor", PasswordHash: "x", ReferCode: "111111"})
	if err != nil {
		t.Fatalf("create sponsor: %v", err)
	}
	defer store.DeleteUser(ctx, sponsor.ID)

	if err := store.AppendGeneration(ctx, sponsor.ID, 1, "it-member"); err != nil {
		t.Fatalf("append generation: %v", err)
	}

	got, err := store.GetUser(ctx, sponsor.ID)
	if err != nil {
		t.Fatalf("get sponsor: %v", err)
	}
	if len(got.Generation.Level1) != 1 || got.Generation.Level1[0] != "it-member" {
		t.Fatalf("unexpected generation: %+v", got.Generation)
	}

	if _, err := store.CreditBalance(ctx, sponsor.ID, 100); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, err := store.DebitBalance(ctx, sponsor.ID, 40)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 60 {
		t.Fatalf("expected balance 60, got %v", balance)
	}
	if _, err := store.DebitBalance(ctx, sponsor.ID, 1000); !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}
