package ports

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

import (
	"context"
	"time"

	"private-ledger-indexer/internal/core/domain"

	"github.com/google/uuid"
)

// Signer is the injected signing capability the record key is derived from.
// For a fixed message and a fixed underlying secret the signature must be
// deterministic, so the key can be re-derived statelessly across sessions.
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// RecordCodec turns private records into self-authenticating opaque
// envelopes and back. Implementations are stateless across calls apart from
// the held key and safe for concurrent use.
type RecordCodec interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(envelope []byte) ([]byte, error)
	EncodeRecord(record domain.PrivateRecord) ([]byte, error)
	DecodeRecord(envelope []byte) (domain.PrivateRecord, error)
	// IdentitySeed returns hex(SHA-256(key)), a deterministic seed for a
	// secondary identity keypair derived elsewhere.
	IdentitySeed() string
}

// ReloadScheduler coalesces change notifications into serialized reloads.
type ReloadScheduler interface {
	Trigger()
}

// SignatureService handles HMAC-SHA256 signing and verification of webhook
// payloads.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(event string, timestamp int64, nonce string, body string) string
}

// HashService handles client secret hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(clientID uuid.UUID, accessKey string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ClientID  uuid.UUID
	AccessKey string
}

// AuthService defines client registration and login.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, accessKey, secret string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for client registration.
type RegisterRequest struct {
	Name string
}

// RegisterResponse holds the registration result shown once.
type RegisterResponse struct {
	ClientID  uuid.UUID
	AccessKey string
	Secret    string // Plaintext, shown only at registration
}

// IndexService serves the cached record view and ingests new records.
type IndexService interface {
	// Records returns the owner's unspent records, decrypting envelopes
	// when decrypt is true.
	Records(ctx context.Context, ownerID uuid.UUID, decrypt bool) ([]RecordView, error)
	// Submit encrypts and stores a new record, atomically marking the
	// commitments it spends.
	Submit(ctx context.Context, input SubmitRecordInput) (*domain.LedgerRecord, error)
	// Rebuild reloads the full unspent set from storage into the cache.
	// This is the reload operation driven by the ReloadScheduler.
	Rebuild(ctx context.Context) error
}

// RecordView pairs a stored record with its optional decrypted form.
type RecordView struct {
	domain.LedgerRecord
	Decrypted *domain.PrivateRecord `json:"decrypted,omitempty"`
}

// SubmitRecordInput holds validated input for record ingestion.
type SubmitRecordInput struct {
	OwnerID    uuid.UUID
	Commitment string
	LeafIndex  uint64
	Record     domain.PrivateRecord
	Spends     []string // Commitments consumed by this record
}
