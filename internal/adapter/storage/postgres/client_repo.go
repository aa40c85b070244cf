package postgres

import (
	"context"
	"errors"
	"fmt"

	"private-ledger-indexer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ClientRepo implements ports.ClientRepository.
type ClientRepo struct {
	pool Pool
}

// NewClientRepo creates a new ClientRepo.
func NewClientRepo(pool Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

const clientColumns = `id, name, access_key, secret_hash, status, created_at, updated_at`

// Create inserts a new client into the database.
func (r *ClientRepo) Create(ctx context.Context, c *domain.Client) error {
	query := `INSERT INTO clients (id, name, access_key, secret_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Name, c.AccessKey, c.SecretHash, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID fetches a client by its UUID.
func (r *ClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanClient(r.pool.QueryRow(ctx, query, id), "get client by id")
}

// GetByAccessKey fetches a client by its public access key.
func (r *ClientRepo) GetByAccessKey(ctx context.Context, accessKey string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE access_key = $1`
	return r.scanClient(r.pool.QueryRow(ctx, query, accessKey), "get client by access key")
}

// GetByName fetches a client by its registered name.
func (r *ClientRepo) GetByName(ctx context.Context, name string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE name = $1`
	return r.scanClient(r.pool.QueryRow(ctx, query, name), "get client by name")
}

func (r *ClientRepo) scanClient(row pgx.Row, op string) (*domain.Client, error) {
	c := &domain.Client{}
	err := row.Scan(
		&c.ID, &c.Name, &c.AccessKey, &c.SecretHash,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
