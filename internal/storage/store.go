// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

// StorageName is the fixed name every account key is namespaced under.
const StorageName = "roomies-user-storage"

var (
	// ErrNotFound is returned when a key or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when an email is already indexed to another
	// account.
	ErrEmailTaken = errors.New("email already registered")
)

// KV is the local key-value persistence used to keep serialized account
// records across restarts. Backends: sqlite (default), redis, memory.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// AccountRepository stores account records.
type AccountRepository interface {
	// GetAccount returns the account with id, or ErrNotFound.
	GetAccount(ctx context.Context, id string) (*models.AccountRecord, error)

	// GetAccountByEmail returns the account registered with email, or ErrNotFound.
	GetAccountByEmail(ctx context.Context, email string) (*models.AccountRecord, error)

	// SaveAccount creates or replaces the account.
	SaveAccount(ctx context.Context, acct *models.AccountRecord) error

	// ListAccounts returns every stored account ordered by ID.
	ListAccounts(ctx context.Context) ([]models.AccountRecord, error)
}

// ListOptions pages through discovery records.
type ListOptions struct {
	Limit  int
	Offset int

	// ExcludeID leaves one identity out before paging, typically the viewer.
	ExcludeID string
}

// DiscoveryStore holds the discovery records, one per identity.
// Records are created or replaced whole; there is no delete.
type DiscoveryStore interface {
	// GetDiscovery returns the record for id, or ErrNotFound.
	GetDiscovery(ctx context.Context, id string) (*models.DiscoveryRecord, error)

	// PutDiscovery creates or replaces the record keyed by rec.ID.
	PutDiscovery(ctx context.Context, rec *models.DiscoveryRecord) error

	// ListDiscovery returns records ordered by most recently updated.
	ListDiscovery(ctx context.Context, opts ListOptions) ([]models.DiscoveryRecord, error)
}
