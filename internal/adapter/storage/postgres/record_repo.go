package postgres

import (
	"context"
	"errors"
	"fmt"

	"private-ledger-indexer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordRepo implements ports.RecordRepository.
type RecordRepo struct {
	pool Pool
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(pool Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

const recordColumns = `id, owner_id, commitment, leaf_index, asset_id, envelope, spent, created_at`

// Insert stores a new ledger record within a database transaction.
func (r *RecordRepo) Insert(ctx context.Context, tx pgx.Tx, rec *domain.LedgerRecord) error {
	query := `INSERT INTO ledger_records (id, owner_id, commitment, leaf_index, asset_id, envelope, spent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.Commitment, rec.LeafIndex,
		rec.AssetID, rec.Envelope, rec.Spent, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger record: %w", err)
	}
	return nil
}

// MarkSpent flags an unspent record by commitment within a transaction.
// Returns false when no unspent record matched.
func (r *RecordRepo) MarkSpent(ctx context.Context, tx pgx.Tx, commitment string) (bool, error) {
	query := `UPDATE ledger_records SET spent = TRUE WHERE commitment = $1 AND spent = FALSE`

	tag, err := tx.Exec(ctx, query, commitment)
	if err != nil {
		return false, fmt.Errorf("mark record spent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByCommitment fetches a record by its commitment, spent or not.
func (r *RecordRepo) GetByCommitment(ctx context.Context, commitment string) (*domain.LedgerRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM ledger_records WHERE commitment = $1`

	rec := &domain.LedgerRecord{}
	err := r.pool.QueryRow(ctx, query, commitment).Scan(
		&rec.ID, &rec.OwnerID, &rec.Commitment, &rec.LeafIndex,
		&rec.AssetID, &rec.Envelope, &rec.Spent, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get record by commitment: %w", err)
	}
	return rec, nil
}

// ListUnspentByOwner fetches all unspent records owned by a client.
func (r *RecordRepo) ListUnspentByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.LedgerRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM ledger_records
		WHERE owner_id = $1 AND spent = FALSE ORDER BY leaf_index ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list unspent records by owner: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListUnspent fetches every unspent record across all owners. This is the
// source query for full index rebuilds.
func (r *RecordRepo) ListUnspent(ctx context.Context) ([]domain.LedgerRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM ledger_records
		WHERE spent = FALSE ORDER BY leaf_index ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unspent records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]domain.LedgerRecord, error) {
	var records []domain.LedgerRecord
	for rows.Next() {
		var rec domain.LedgerRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Commitment, &rec.LeafIndex,
			&rec.AssetID, &rec.Envelope, &rec.Spent, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger records: %w", err)
	}
	return records, nil
}
