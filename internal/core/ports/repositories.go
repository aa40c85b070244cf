package ports

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

import (
	"context"
	"time"

	"private-ledger-indexer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordRepository defines persistence operations for ledger records.
// Methods accepting pgx.Tx run inside a transaction so that a new record and
// the inputs it spends commit atomically.
type RecordRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, record *domain.LedgerRecord) error
	MarkSpent(ctx context.Context, tx pgx.Tx, commitment string) (bool, error)
	GetByCommitment(ctx context.Context, commitment string) (*domain.LedgerRecord, error)
	ListUnspentByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.LedgerRecord, error)
	ListUnspent(ctx context.Context) ([]domain.LedgerRecord, error)
}

// ClientRepository defines persistence operations for API clients.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	GetByAccessKey(ctx context.Context, accessKey string) (*domain.Client, error)
	GetByName(ctx context.Context, name string) (*domain.Client, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RecordCache is the Redis-backed per-owner view of the unspent record set.
// The reload rebuild replaces it wholesale; reads fall back to the repository
// on a miss.
type RecordCache interface {
	// GetOwnerRecords returns the cached records for an owner. The second
	// return value is false when the owner has no cache entry.
	GetOwnerRecords(ctx context.Context, ownerID uuid.UUID) ([]domain.LedgerRecord, bool, error)
	SetOwnerRecords(ctx context.Context, ownerID uuid.UUID, records []domain.LedgerRecord) error
	// ReplaceAll atomically swaps the entire cached view for the given one,
	// dropping entries for owners absent from the new view.
	ReplaceAll(ctx context.Context, byOwner map[uuid.UUID][]domain.LedgerRecord) error
}

// NonceStore manages nonce uniqueness for webhook replay prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if the nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, scope string, nonce string, ttl time.Duration) (bool, error)
}
