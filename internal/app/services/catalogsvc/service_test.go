package catalogsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/megamart/ledger-service/internal/app/domain/catalog"
	"github.com/megamart/ledger-service/internal/app/storage/memory"
)

func TestAdminLoginAndTokenLifecycle(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "hunter2"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	// Seeding twice must not overwrite the credential.
	if err := svc.EnsureAdmin(ctx, "other", "other"); err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}

	if _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "other", "other"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for non-seeded username, got %v", err)
	}

	token, err := svc.Login(ctx, "admin", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !svc.VerifyToken(token) {
		t.Fatal("expected valid token")
	}
	if svc.VerifyToken("not-a-token") {
		t.Fatal("expected invalid token")
	}

	// Tokens expire.
	svc.now = func() time.Time { return time.Now().UTC().Add(tokenTTL + time.Minute) }
	if svc.VerifyToken(token) {
		t.Fatal("expected expired token")
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "hunter2"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	token, err := svc.Login(ctx, "admin", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.ChangePassword(ctx, "admin", "correct horse"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if svc.VerifyToken(token) {
		t.Fatal("expected revoked token")
	}

	if _, err := svc.Login(ctx, "admin", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "correct horse"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestWalletUpdateKeepsImage(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, catalog.Wallet{WalletName: "USDT", WalletAddress: "TAAA", Img: "usdt.png"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	updated, err := svc.UpdateWallet(ctx, catalog.Wallet{ID: w.ID, WalletName: "USDT", WalletAddress: "TBBB"})
	if err != nil {
		t.Fatalf("update wallet: %v", err)
	}
	if updated.WalletAddress != "TBBB" {
		t.Fatalf("address = %s", updated.WalletAddress)
	}
	if updated.Img != "usdt.png" {
		t.Fatalf("image dropped, got %q", updated.Img)
	}
}

func TestSupportContactSingleton(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	first, err := svc.SetSupportContact(ctx, "@help_one")
	if err != nil {
		t.Fatalf("set support: %v", err)
	}
	second, err := svc.SetSupportContact(ctx, "@help_two")
	if err != nil {
		t.Fatalf("replace support: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("replace should mint a new record")
	}

	got, err := svc.GetSupportContact(ctx)
	if err != nil {
		t.Fatalf("get support: %v", err)
	}
	if got.TelegramUsername != "@help_two" {
		t.Fatalf("telegram = %s", got.TelegramUsername)
	}

	edited, err := svc.UpdateSupportContact(ctx, got.ID, "@help_three")
	if err != nil {
		t.Fatalf("update support: %v", err)
	}
	if edited.TelegramUsername != "@help_three" || edited.UpdatedAt.IsZero() {
		t.Fatalf("unexpected edit %+v", edited)
	}
}

func TestProductValidation(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, catalog.Product{Price: 5}); err == nil {
		t.Fatal("expected name validation error")
	}
	if _, err := svc.CreateProduct(ctx, catalog.Product{Name: "phone", Price: -1}); err == nil {
		t.Fatal("expected price validation error")
	}

	p, err := svc.CreateProduct(ctx, catalog.Product{Name: "phone", Price: 199})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
}
