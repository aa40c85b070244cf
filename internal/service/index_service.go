package service

import (
	"context"
	"fmt"
	"time"

	"private-ledger-indexer/internal/core/domain"
	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// IndexServiceImpl implements ports.IndexService. It owns the cached view of
// the unspent record set and the ingest path that feeds it.
type IndexServiceImpl struct {
	recordRepo ports.RecordRepository
	cache      ports.RecordCache
	codec      ports.RecordCodec
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewIndexService creates a new IndexServiceImpl.
func NewIndexService(
	recordRepo ports.RecordRepository,
	cache ports.RecordCache,
	codec ports.RecordCodec,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *IndexServiceImpl {
	return &IndexServiceImpl{
		recordRepo: recordRepo,
		cache:      cache,
		codec:      codec,
		transactor: transactor,
		log:        log,
	}
}

// Rebuild reloads the full unspent record set from PostgreSQL and swaps the
// Redis view wholesale. This is the reload operation the coalescer drives;
// it must tolerate being called repeatedly and concurrently with reads.
func (s *IndexServiceImpl) Rebuild(ctx context.Context) error {
	start := time.Now()

	records, err := s.recordRepo.ListUnspent(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("list unspent records: %w", err))
	}

	byOwner := make(map[uuid.UUID][]domain.LedgerRecord)
	for _, r := range records {
		byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r)
	}

	if err := s.cache.ReplaceAll(ctx, byOwner); err != nil {
		return apperror.ErrCacheError(fmt.Errorf("replace cached view: %w", err))
	}

	s.log.Info().
		Int("records", len(records)).
		Int("owners", len(byOwner)).
		Dur("took", time.Since(start)).
		Msg("record index rebuilt")
	return nil
}

// Records returns the owner's unspent records, reading through the cache.
// On a miss the repository is consulted and the cache backfilled.
func (s *IndexServiceImpl) Records(ctx context.Context, ownerID uuid.UUID, decrypt bool) ([]ports.RecordView, error) {
	records, found, err := s.cache.GetOwnerRecords(ctx, ownerID)
	if err != nil {
		s.log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("cache read failed, falling back to database")
		found = false
	}

	if !found {
		records, err = s.recordRepo.ListUnspentByOwner(ctx, ownerID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("list records by owner: %w", err))
		}
		// Backfill is best-effort; the next rebuild repairs any gap.
		if err := s.cache.SetOwnerRecords(ctx, ownerID, records); err != nil {
			s.log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("cache backfill failed")
		}
	}

	views := make([]ports.RecordView, 0, len(records))
	for _, r := range records {
		view := ports.RecordView{LedgerRecord: r}
		if decrypt {
			decoded, err := s.codec.DecodeRecord(r.Envelope)
			if err != nil {
				return nil, fmt.Errorf("decode record %s: %w", r.Commitment, err)
			}
			view.Decrypted = &decoded
		}
		views = append(views, view)
	}
	return views, nil
}

// Submit encrypts and stores a new record. The insert and the spend marks for
// consumed inputs commit in one transaction, so a transfer never becomes
// observable half-applied.
func (s *IndexServiceImpl) Submit(ctx context.Context, input ports.SubmitRecordInput) (*domain.LedgerRecord, error) {
	if input.Commitment == "" {
		return nil, apperror.ErrInvalidCommitment()
	}

	envelope, err := s.codec.EncodeRecord(input.Record)
	if err != nil {
		return nil, err
	}

	existing, err := s.recordRepo.GetByCommitment(ctx, input.Commitment)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check commitment: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateCommitment()
	}

	record := &domain.LedgerRecord{
		ID:         uuid.New(),
		OwnerID:    input.OwnerID,
		Commitment: input.Commitment,
		LeafIndex:  input.LeafIndex,
		AssetID:    input.Record.AssetID,
		Envelope:   envelope,
		Spent:      false,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := s.recordRepo.Insert(ctx, tx, record); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("insert record: %w", err))
	}

	for _, spent := range input.Spends {
		marked, err := s.recordRepo.MarkSpent(ctx, tx, spent)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("mark spent %s: %w", spent, err))
		}
		if !marked {
			return nil, apperror.ErrUnknownSpentInput(spent)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit transaction: %w", err))
	}

	s.log.Info().
		Str("commitment", record.Commitment).
		Str("owner_id", record.OwnerID.String()).
		Int("spent_inputs", len(input.Spends)).
		Msg("record submitted")
	return record, nil
}
