package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"private-ledger-indexer/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RecordCache implements ports.RecordCache using Redis. Each owner's unspent
// record set is stored as one JSON value, so a read is a single GET.
type RecordCache struct {
	client *goredis.Client
	prefix string
}

// NewRecordCache creates a new Redis-backed record cache.
func NewRecordCache(client *goredis.Client) *RecordCache {
	return &RecordCache{
		client: client,
		prefix: "utxos:",
	}
}

// GetOwnerRecords retrieves an owner's cached record set. The second return
// value reports whether the owner's key was present.
func (c *RecordCache) GetOwnerRecords(ctx context.Context, ownerID uuid.UUID) ([]domain.LedgerRecord, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+ownerID.String()).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis record cache get: %w", err)
	}

	var records []domain.LedgerRecord
	if err := json.Unmarshal(val, &records); err != nil {
		return nil, false, fmt.Errorf("redis record cache decode: %w", err)
	}
	return records, true, nil
}

// SetOwnerRecords stores an owner's record set. Entries carry no TTL; the
// next full rebuild replaces them.
func (c *RecordCache) SetOwnerRecords(ctx context.Context, ownerID uuid.UUID, records []domain.LedgerRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("redis record cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+ownerID.String(), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis record cache set: %w", err)
	}
	return nil
}

// ReplaceAll swaps the entire cached view. Stale owner keys are scanned and
// removed first so owners whose last record was spent do not linger, then the
// new sets are written in one pipeline.
func (c *RecordCache) ReplaceAll(ctx context.Context, byOwner map[uuid.UUID][]domain.LedgerRecord) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var stale []string
	for iter.Next(ctx) {
		stale = append(stale, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis record cache scan: %w", err)
	}

	pipe := c.client.TxPipeline()
	if len(stale) > 0 {
		pipe.Del(ctx, stale...)
	}
	for ownerID, records := range byOwner {
		payload, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("redis record cache encode: %w", err)
		}
		pipe.Set(ctx, c.prefix+ownerID.String(), payload, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record cache replace: %w", err)
	}
	return nil
}
