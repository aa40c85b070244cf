package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"private-ledger-indexer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Client Repo ---

type inMemoryClientRepo struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*domain.Client
}

func newInMemoryClientRepo() *inMemoryClientRepo {
	return &inMemoryClientRepo{clients: make(map[uuid.UUID]*domain.Client)}
}

func (r *inMemoryClientRepo) Create(ctx context.Context, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if existing.Name == c.Name {
			return fmt.Errorf("client name already exists")
		}
	}
	r.clients[c.ID] = c
	return nil
}

func (r *inMemoryClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (r *inMemoryClientRepo) GetByAccessKey(ctx context.Context, accessKey string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.AccessKey == accessKey {
			return c, nil
		}
	}
	return nil, nil
}

func (r *inMemoryClientRepo) GetByName(ctx context.Context, name string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

// --- In-Memory Record Repo ---

type inMemoryRecordRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.LedgerRecord // keyed by commitment
}

func newInMemoryRecordRepo() *inMemoryRecordRepo {
	return &inMemoryRecordRepo{records: make(map[string]*domain.LedgerRecord)}
}

func (r *inMemoryRecordRepo) Insert(ctx context.Context, tx pgx.Tx, rec *domain.LedgerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Commitment]; ok {
		return fmt.Errorf("duplicate commitment")
	}
	cp := *rec
	r.records[rec.Commitment] = &cp
	return nil
}

func (r *inMemoryRecordRepo) MarkSpent(ctx context.Context, tx pgx.Tx, commitment string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[commitment]
	if !ok || rec.Spent {
		return false, nil
	}
	rec.Spent = true
	return true, nil
}

func (r *inMemoryRecordRepo) GetByCommitment(ctx context.Context, commitment string) (*domain.LedgerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[commitment]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemoryRecordRepo) ListUnspentByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.LedgerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LedgerRecord
	for _, rec := range r.records {
		if rec.OwnerID == ownerID && !rec.Spent {
			out = append(out, *rec)
		}
	}
	sortByLeafIndex(out)
	return out, nil
}

func (r *inMemoryRecordRepo) ListUnspent(ctx context.Context) ([]domain.LedgerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LedgerRecord
	for _, rec := range r.records {
		if !rec.Spent {
			out = append(out, *rec)
		}
	}
	sortByLeafIndex(out)
	return out, nil
}

func sortByLeafIndex(records []domain.LedgerRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].LeafIndex < records[j].LeafIndex
	})
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
