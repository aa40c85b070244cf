package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "private-ledger-indexer")
	clientID := uuid.New()

	token, expiry, err := svc.Generate(clientID, "ak_test123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, claims.ClientID)
	assert.Equal(t, "ak_test123", claims.AccessKey)
}

func TestJWTTokenService_ValidateFails_WrongSecret(t *testing.T) {
	svc1 := NewJWTTokenService("secret-one", time.Hour, "issuer")
	svc2 := NewJWTTokenService("secret-two", time.Hour, "issuer")

	token, _, err := svc1.Generate(uuid.New(), "ak_x")
	require.NoError(t, err)

	_, err = svc2.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_ValidateFails_Expired(t *testing.T) {
	svc := NewJWTTokenService("secret", -time.Minute, "issuer")

	token, _, err := svc.Generate(uuid.New(), "ak_x")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_ValidateFails_Garbage(t *testing.T) {
	svc := NewJWTTokenService("secret", time.Hour, "issuer")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)

	_, err = svc.Validate("")
	assert.Error(t, err)
}
