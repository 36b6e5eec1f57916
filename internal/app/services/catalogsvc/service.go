// Package catalogsvc manages the storefront documents (products, plans,
// payment wallets, the support contact) and the admin credential.
package catalogsvc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/megamart/ledger-service/internal/app/domain/catalog"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/pkg/logger"
)

// ErrInvalidCredentials reports a failed admin login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// tokenTTL bounds how long an admin session token stays valid.
const tokenTTL = 12 * time.Hour

// Service manages catalog documents and admin sessions. Session tokens are
// opaque and process-local; a restart invalidates them all.
type Service struct {
	store storage.CatalogStore
	log   *logger.Logger

	mu     sync.Mutex
	tokens map[string]time.Time
	static map[string]struct{}

	now func() time.Time
}

// New constructs a catalog service.
func New(store storage.CatalogStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{
		store:  store,
		log:    log,
		tokens: make(map[string]time.Time),
		static: make(map[string]struct{}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AttachStaticTokens registers pre-shared tokens that VerifyToken accepts
// without a login. Empty entries are ignored.
func (s *Service) AttachStaticTokens(tokens []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t != "" {
			s.static[t] = struct{}{}
		}
	}
}

// --- Admin sessions -----------------------------------------------------------

// EnsureAdmin seeds the admin credential when none exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.store.GetAdmin(ctx); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.store.UpdateAdmin(ctx, username, string(hash)); err != nil {
		return err
	}
	s.log.WithField("username", username).Info("admin credential seeded")
	return nil
}

// Login verifies the admin credential and mints a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	cred, err := s.store.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.tokens[token] = s.now().Add(tokenTTL)
	s.mu.Unlock()

	s.log.WithField("username", cred.Username).Info("admin logged in")
	return token, nil
}

// VerifyToken reports whether token belongs to a live admin session.
func (s *Service) VerifyToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.static[token]; ok {
		return true
	}
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// ChangePassword rotates the admin password and revokes every session.
func (s *Service) ChangePassword(ctx context.Context, username, password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.store.UpdateAdmin(ctx, strings.TrimSpace(username), string(hash)); err != nil {
		return err
	}

	s.mu.Lock()
	s.tokens = make(map[string]time.Time)
	s.mu.Unlock()

	s.log.Info("admin password changed")
	return nil
}

// --- Products -----------------------------------------------------------------

func (s *Service) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if strings.TrimSpace(p.Name) == "" {
		return catalog.Product{}, fmt.Errorf("name is required")
	}
	if p.Price < 0 {
		return catalog.Product{}, fmt.Errorf("price must not be negative")
	}
	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return catalog.Product{}, err
	}
	s.log.WithField("product_id", created.ID).Info("product created")
	return created, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.store.DeleteProduct(ctx, id)
}

// --- Plans --------------------------------------------------------------------

func (s *Service) ListPlans(ctx context.Context) ([]catalog.Plan, error) {
	return s.store.ListPlans(ctx)
}

func (s *Service) UpsertPlan(ctx context.Context, p catalog.Plan) (catalog.Plan, error) {
	if strings.TrimSpace(p.Name) == "" {
		return catalog.Plan{}, fmt.Errorf("name is required")
	}
	if p.Price < 0 {
		return catalog.Plan{}, fmt.Errorf("price must not be negative")
	}
	saved, err := s.store.UpdatePlan(ctx, p)
	if err != nil {
		return catalog.Plan{}, err
	}
	s.log.WithField("plan_id", saved.ID).Info("plan saved")
	return saved, nil
}

func (s *Service) DeletePlan(ctx context.Context, id string) error {
	return s.store.DeletePlan(ctx, id)
}

// --- Payment wallets ----------------------------------------------------------

func (s *Service) ListWallets(ctx context.Context) ([]catalog.Wallet, error) {
	return s.store.ListWallets(ctx)
}

func (s *Service) CreateWallet(ctx context.Context, w catalog.Wallet) (catalog.Wallet, error) {
	if strings.TrimSpace(w.WalletName) == "" || strings.TrimSpace(w.WalletAddress) == "" {
		return catalog.Wallet{}, fmt.Errorf("walletName and walletAddress are required")
	}
	created, err := s.store.CreateWallet(ctx, w)
	if err != nil {
		return catalog.Wallet{}, err
	}
	s.log.WithField("wallet_id", created.ID).Info("wallet created")
	return created, nil
}

// UpdateWallet edits a wallet. An empty image keeps the stored one.
func (s *Service) UpdateWallet(ctx context.Context, w catalog.Wallet) (catalog.Wallet, error) {
	if strings.TrimSpace(w.WalletName) == "" || strings.TrimSpace(w.WalletAddress) == "" {
		return catalog.Wallet{}, fmt.Errorf("walletName and walletAddress are required")
	}
	return s.store.UpdateWallet(ctx, w)
}

func (s *Service) DeleteWallet(ctx context.Context, id string) error {
	return s.store.DeleteWallet(ctx, id)
}

// --- Support contact ----------------------------------------------------------

func (s *Service) GetSupportContact(ctx context.Context) (catalog.SupportContact, error) {
	return s.store.GetSupportContact(ctx)
}

// SetSupportContact replaces the singleton support handle.
func (s *Service) SetSupportContact(ctx context.Context, telegramUsername string) (catalog.SupportContact, error) {
	telegramUsername = strings.TrimSpace(telegramUsername)
	if telegramUsername == "" {
		return catalog.SupportContact{}, fmt.Errorf("telegramUsername is required")
	}
	c, err := s.store.ReplaceSupportContact(ctx, catalog.SupportContact{TelegramUsername: telegramUsername})
	if err != nil {
		return catalog.SupportContact{}, err
	}
	s.log.WithField("telegram", telegramUsername).Info("support contact replaced")
	return c, nil
}

// UpdateSupportContact edits the existing support handle in place.
func (s *Service) UpdateSupportContact(ctx context.Context, id, telegramUsername string) (catalog.SupportContact, error) {
	telegramUsername = strings.TrimSpace(telegramUsername)
	if telegramUsername == "" {
		return catalog.SupportContact{}, fmt.Errorf("telegramUsername is required")
	}
	return s.store.UpdateSupportContact(ctx, catalog.SupportContact{ID: id, TelegramUsername: telegramUsername})
}
