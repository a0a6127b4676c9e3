package store

import (
	"context"
	"errors"

	"github.com/aegis-id/aegis/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement it. Sub-repositories keep concerns tidy and let services
// depend on just the slice they need.
type Store interface {
	Users() Users
	MFASecrets() MFASecrets

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit or Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty reports whether any users exist, for bootstrap gating.
	IsEmpty(ctx context.Context) (bool, error)
}

type MFASecrets interface {
	// Create inserts a new secret row. Fresh rows are always PENDING.
	Create(ctx context.Context, s domain.MFASecret) error

	// FindByUserAndStatus returns the most recent secret for the user in
	// the given status, or ErrNotFound.
	FindByUserAndStatus(ctx context.Context, userID string, status domain.MFAStatus) (domain.MFASecret, error)

	// FindLatestByUser returns the user's most recent secret regardless
	// of status, or ErrNotFound when the user never enrolled.
	FindLatestByUser(ctx context.Context, userID string) (domain.MFASecret, error)

	// UpdateStatus transitions a secret from one status to another. The
	// write is conditioned on the row still being in `from`: if another
	// caller moved it first, ErrNotFound is returned and nothing changes.
	UpdateStatus(ctx context.Context, id string, from, to domain.MFAStatus) error
}
