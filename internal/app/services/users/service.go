// Package users manages member registration, login and the referral
// generation propagation that registration triggers.
package users

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/megamart/ledger-service/internal/app/domain/user"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/pkg/logger"
)

// ErrUsernameTaken reports a registration with an already-registered username.
var ErrUsernameTaken = errors.New("username already registered")

// ErrInvalidSponsor reports a registration whose sponsor code matches no user.
var ErrInvalidSponsor = errors.New("invalid sponsor code")

// ErrInvalidCredentials reports a failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// referCodeAttempts bounds the generate-then-check loop; with a six digit
// space collisions are rare until the member count approaches the space.
const referCodeAttempts = 8

// Detail is a user together with the resolved sponsor username.
type Detail struct {
	User            user.User `json:"user"`
	SponsorUsername string    `json:"sponsorUsername,omitempty"`
}

// Service manages member accounts.
type Service struct {
	store storage.UserStore
	log   *logger.Logger

	// newReferCode is swappable in tests to force collisions.
	newReferCode func() string
}

// New constructs a users service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{
		store:        store,
		log:          log,
		newReferCode: randomReferCode,
	}
}

func randomReferCode() string {
	return fmt.Sprintf("%06d", rand.Intn(900000)+100000)
}

func randomDigits(width int) string {
	low := 1
	for i := 1; i < width; i++ {
		low *= 10
	}
	return fmt.Sprintf("%d", low+rand.Intn(low*9))
}

// Register creates a member under the sponsor owning sponsorCode, assigns a
// fresh refer code, and records the new username in the generation lists of
// up to three sponsor levels. An empty sponsorCode is accepted only for the
// first registered user.
func (s *Service) Register(ctx context.Context, username, password, sponsorCode string) (user.User, error) {
	username = strings.TrimSpace(username)
	sponsorCode = strings.TrimSpace(sponsorCode)

	if username == "" {
		return user.User{}, fmt.Errorf("username is required")
	}
	if password == "" {
		return user.User{}, fmt.Errorf("password is required")
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return user.User{}, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, err
	}

	var sponsor user.User
	if sponsorCode == "" {
		count, err := s.store.CountUsers(ctx)
		if err != nil {
			return user.User{}, err
		}
		if count > 0 {
			return user.User{}, ErrInvalidSponsor
		}
	} else {
		var err error
		sponsor, err = s.store.GetUserByReferCode(ctx, sponsorCode)
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, ErrInvalidSponsor
		}
		if err != nil {
			return user.User{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, err
	}

	referCode, err := s.freshReferCode(ctx)
	if err != nil {
		return user.User{}, err
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Username:     username,
		PasswordHash: string(hash),
		SponsorID:    sponsorCode,
		ReferCode:    referCode,
	})
	if err != nil {
		return user.User{}, err
	}

	if sponsorCode != "" {
		s.propagateGenerations(ctx, sponsor, created.Username)
	}

	s.log.WithField("user_id", created.ID).
		WithField("username", created.Username).
		Info("user registered")
	return created, nil
}

// freshReferCode generates codes until one is unused, widening the code one
// digit at a time once the six digit space runs hot. A code observed free
// here can still collide on insert; the unique constraint on the column is
// the final arbiter.
func (s *Service) freshReferCode(ctx context.Context) (string, error) {
	for i := 0; i < referCodeAttempts; i++ {
		code := s.newReferCode()
		_, err := s.store.GetUserByReferCode(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	for width := 7; width <= 9; width++ {
		for i := 0; i < referCodeAttempts; i++ {
			code := randomDigits(width)
			_, err := s.store.GetUserByReferCode(ctx, code)
			if errors.Is(err, storage.ErrNotFound) {
				return code, nil
			}
			if err != nil {
				return "", err
			}
		}
	}
	return "", errors.New("refer code space exhausted")
}

// propagateGenerations appends the new username to the sponsor chain, one
// append per level. Failures past the first level are logged and skipped so
// one broken ancestor does not undo the registration.
func (s *Service) propagateGenerations(ctx context.Context, sponsor user.User, username string) {
	current := sponsor
	for level := 1; level <= user.MaxLevel; level++ {
		if err := s.store.AppendGeneration(ctx, current.ID, level, username); err != nil {
			s.log.WithError(err).
				WithField("sponsor_id", current.ID).
				WithField("level", level).
				Warn("generation append failed")
		}
		if current.SponsorID == "" {
			return
		}
		next, err := s.store.GetUserByReferCode(ctx, current.SponsorID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.log.WithError(err).
					WithField("refer_code", current.SponsorID).
					Warn("sponsor chain walk failed")
			}
			return
		}
		current = next
	}
}

// Login verifies a username and password.
func (s *Service) Login(ctx context.Context, username, password string) (user.User, error) {
	username = strings.TrimSpace(username)
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return user.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns a user with the sponsor username resolved.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{User: u}
	if u.SponsorID != "" {
		sponsor, err := s.store.GetUserByReferCode(ctx, u.SponsorID)
		if err == nil {
			detail.SponsorUsername = sponsor.Username
		} else if !errors.Is(err, storage.ErrNotFound) {
			return Detail{}, err
		}
	}
	return detail, nil
}

// List returns every registered user.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}

// SummariesByUsernames returns the balance projection for the given
// usernames. Unknown usernames are skipped without error.
func (s *Service) SummariesByUsernames(ctx context.Context, usernames []string) ([]user.Summary, error) {
	found, err := s.store.ListUsersByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}
	summaries := make([]user.Summary, 0, len(found))
	for _, u := range found {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// Update overwrites the mutable admin-facing fields.
func (s *Service) Update(ctx context.Context, id string, balance *float64, remark *string) (user.User, error) {
	if balance != nil && *balance < 0 {
		return user.User{}, fmt.Errorf("balance must not be negative")
	}
	if err := s.store.UpdateUserFields(ctx, id, balance, remark); err != nil {
		return user.User{}, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("user_id", id).Info("user updated")
	return u, nil
}

// Delete removes a member account. Generation lists that mention the deleted
// username are left as-is; they are historical join records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}
