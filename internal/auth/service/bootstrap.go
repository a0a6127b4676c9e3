package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/aegis-id/aegis/internal/auth/domain"
	"github.com/aegis-id/aegis/internal/auth/store"
	"github.com/aegis-id/aegis/pkg/cryptox"
	"github.com/aegis-id/aegis/pkg/idx"
	"github.com/aegis-id/aegis/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService creates the first user on an empty database. Regular
// registration is out of scope, so this is the only way users come into
// existence.
type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token
	Clock Clock
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, storeErr(err)
	}
	return !empty, nil
}

// Bootstrap creates the initial user and returns its id. The provided
// token must match the configured one, and the users table must be empty.
func (s *BootstrapService) Bootstrap(ctx context.Context, token, email, password string) (string, error) {
	l := slogx.FromContext(ctx)

	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return "", ErrBootstrapUnauthorized
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash bootstrap password", slog.Any("error", err))
		return "", err
	}

	now := s.Clock.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: passHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The empty check and the insert share a transaction so two racing
	// bootstrap calls cannot both win.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return storeErr(err)
		}
		if !empty {
			return ErrBootstrapAlready
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return storeErr(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	l.Info("bootstrapped system", slog.String("user_id", user.ID))
	return user.ID, nil
}
