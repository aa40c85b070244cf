package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClientStatus represents the state of a client account.
type ClientStatus string

const (
	ClientStatusActive      ClientStatus = "ACTIVE"
	ClientStatusSuspended   ClientStatus = "SUSPENDED"
	ClientStatusDeactivated ClientStatus = "DEACTIVATED"
)

// Client is a registered consumer of the indexer API. Its secret is stored
// only as an Argon2id hash; the plaintext is shown once at registration.
type Client struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	AccessKey  string       `json:"access_key"`
	SecretHash string       `json:"-"` // Never expose
	Status     ClientStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// IsActive returns true if the client account is active.
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}
