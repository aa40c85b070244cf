package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"private-ledger-indexer/internal/core/domain"
	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/pkg/apperror"

	"github.com/google/uuid"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	clientRepo ports.ClientRepository
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	clientRepo ports.ClientRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		clientRepo: clientRepo,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
	}
}

// Register creates a new client account. The generated secret is returned in
// plaintext exactly once; only its Argon2id hash is stored.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	existing, err := s.clientRepo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check client name: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrClientNameExists()
	}

	accessKey, err := generateRandomHex(16) // 32 hex chars
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate access key: %w", err))
	}

	secret, err := generateRandomHex(32) // 64 hex chars
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate secret: %w", err))
	}

	secretHash, err := s.hashSvc.Hash(secret)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash secret: %w", err))
	}

	now := time.Now().UTC()
	client := &domain.Client{
		ID:         uuid.New(),
		Name:       req.Name,
		AccessKey:  "ak_" + accessKey,
		SecretHash: secretHash,
		Status:     domain.ClientStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create client: %w", err))
	}

	return &ports.RegisterResponse{
		ClientID:  client.ID,
		AccessKey: client.AccessKey,
		Secret:    secret,
	}, nil
}

// Login validates access key + secret and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, accessKey, secret string) (string, time.Time, error) {
	client, err := s.clientRepo.GetByAccessKey(ctx, accessKey)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find client: %w", err))
	}
	if client == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(secret, client.SecretHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify secret: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	if !client.IsActive() {
		return "", time.Time{}, apperror.ErrClientSuspended()
	}

	token, expiry, err := s.tokenSvc.Generate(client.ID, client.AccessKey)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

// generateRandomHex returns n random bytes hex-encoded.
func generateRandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
