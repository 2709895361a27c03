package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres,
// mongo) implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a transaction can only be opened from the root.
type Store interface {
	Users() Users
	LoginCodes() LoginCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It is rolled back if fn
	// returns an error and committed otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername matches the username exactly.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// SetUserActive flips the active flag and bumps updated_at.
	SetUserActive(ctx context.Context, userID string, active bool) error
}

type LoginCodes interface {
	// CreateLoginCode stores a freshly issued code. Only CodeHash is written.
	CreateLoginCode(ctx context.Context, c domain.LoginCode) error

	// GetLoginCode finds the record owned by userID whose hash equals codeHash.
	GetLoginCode(ctx context.Context, userID, codeHash string) (domain.LoginCode, error)

	// ConsumeLoginCode deletes the record by id. It returns ErrNotFound when
	// no row was deleted, which is how a lost redemption race is detected.
	ConsumeLoginCode(ctx context.Context, id string) error

	// DeleteUserLoginCodes removes every outstanding code for a user.
	DeleteUserLoginCodes(ctx context.Context, userID string) error

	// DeleteLoginCodesIssuedBefore removes stale codes and returns how many went.
	DeleteLoginCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
