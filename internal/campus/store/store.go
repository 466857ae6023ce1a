package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrSchema        = errors.New("store: schema mismatch")
)

// Store is the root data access interface. The presence core only ever goes
// through Users and Watches; Bans belongs to the command layer.
type Store interface {
	Users() Users
	Watches() Watches
	Bans() Bans

	// ApplyMigrations brings the schema up to date and verifies that every
	// column the core relies on exists.
	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing if fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns ErrNotFound for unregistered users.
	GetUserByID(ctx context.Context, userID int64) (domain.UserRecord, error)

	// GetUserByLogin looks a member up by school login.
	GetUserByLogin(ctx context.Context, login string) (domain.UserRecord, error)

	// UpsertUser registers a user or updates login, name and username of an
	// existing one. Watch fields are left untouched. Returns ErrAlreadyExists
	// when the login belongs to somebody else.
	UpsertUser(ctx context.Context, u domain.UserRecord) error

	// ListUserIDs returns every registered user id in ascending order.
	ListUserIDs(ctx context.Context) ([]int64, error)

	CountUsers(ctx context.Context) (int, error)
}

type Watches interface {
	// ListWatchEntries returns the entries of every user watching someone.
	ListWatchEntries(ctx context.Context) ([]domain.WatchEntry, error)

	// SetWatch points a watcher at a new login and clears its notified flag.
	SetWatch(ctx context.Context, userID int64, login string) error

	// SetNotified flips the notified flag. Returns ErrNotFound for unknown users.
	SetNotified(ctx context.Context, userID int64, notified bool) error
}

type Bans interface {
	Ban(ctx context.Context, userID int64) error
	Unban(ctx context.Context, userID int64) error
	IsBanned(ctx context.Context, userID int64) (bool, error)
	ListBanned(ctx context.Context) ([]int64, error)
}
