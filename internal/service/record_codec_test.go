package service

import (
	"fmt"
	"math/rand"
	"testing"

	"private-ledger-indexer/internal/core/domain"
	"private-ledger-indexer/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSigner returns the same signature for every message.
type fixedSigner struct {
	sig []byte
}

func (s *fixedSigner) Sign(_ []byte) ([]byte, error) {
	return s.sig, nil
}

// failingSigner simulates an unavailable signing capability.
type failingSigner struct{}

func (s *failingSigner) Sign(_ []byte) ([]byte, error) {
	return nil, fmt.Errorf("wallet locked")
}

func testSignature(first byte) []byte {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = first + byte(i)
	}
	return sig
}

func newTestCodec(t *testing.T, first byte) *RecordCodec {
	t.Helper()
	key, err := DeriveRecordKey(&fixedSigner{sig: testSignature(first)})
	require.NoError(t, err)
	codec, err := NewRecordCodec(key)
	require.NoError(t, err)
	return codec
}

func assertCodecError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestDeriveRecordKey_Deterministic(t *testing.T) {
	signer := &fixedSigner{sig: testSignature(0x01)}

	k1, err := DeriveRecordKey(signer)
	require.NoError(t, err)
	k2, err := DeriveRecordKey(signer)
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "same signing capability must always yield the same key")
	assert.Len(t, k1, RecordKeySize)
	assert.Equal(t, testSignature(0x01)[:RecordKeySize], k1)
}

func TestDeriveRecordKey_SigningFails(t *testing.T) {
	_, err := DeriveRecordKey(&failingSigner{})
	assertCodecError(t, err, apperror.CodeSigningFailed)
}

func TestDeriveRecordKey_SignatureTooShort(t *testing.T) {
	_, err := DeriveRecordKey(&fixedSigner{sig: make([]byte, RecordKeySize-1)})
	assertCodecError(t, err, apperror.CodeSigningFailed)
}

func TestNewRecordCodec_RejectsWrongKeyLength(t *testing.T) {
	_, err := NewRecordCodec(make([]byte, 32))
	assert.Error(t, err)

	_, err = NewRecordCodec(nil)
	assert.Error(t, err)
}

func TestRecordCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t, 0x01)

	records := []domain.PrivateRecord{
		{Amount: "1000000000", Blinding: "42", Index: 3, AssetID: "SOL"},
		{Amount: "0", Blinding: "-1", Index: 0, AssetID: "USDC"},
		{Amount: "340282366920938463463374607431768211456", Blinding: "98712361239871236123", Index: 18446744073709551615, AssetID: "asset-mint-4fYn"},
	}

	for _, record := range records {
		t.Run(record.AssetID, func(t *testing.T) {
			envelope, err := codec.EncodeRecord(record)
			require.NoError(t, err)

			decoded, err := codec.DecodeRecord(envelope)
			require.NoError(t, err)
			assert.Equal(t, record, decoded)
		})
	}
}

func TestRecordCodec_CiphertextPreservesLength(t *testing.T) {
	codec := newTestCodec(t, 0x01)

	plaintext := []byte("100|7|0|SOL")
	envelope, err := codec.Encrypt(plaintext)
	require.NoError(t, err)
	assert.Len(t, envelope, domain.EnvelopeHeaderSize+len(plaintext),
		"CTR mode produces ciphertext of plaintext length")
}

func TestRecordCodec_TamperDetection(t *testing.T) {
	codec := newTestCodec(t, 0x01)

	envelope, err := codec.EncodeRecord(domain.PrivateRecord{
		Amount: "5000", Blinding: "17", Index: 12, AssetID: "SOL",
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 256; i++ {
		bit := rng.Intn(len(envelope) * 8)

		tampered := make([]byte, len(envelope))
		copy(tampered, envelope)
		tampered[bit/8] ^= 1 << (bit % 8)

		_, err := codec.Decrypt(tampered)
		assertCodecError(t, err, apperror.CodeAuthenticationFailed)
	}
}

func TestRecordCodec_WrongKey(t *testing.T) {
	codec := newTestCodec(t, 0x01)
	other := newTestCodec(t, 0x02)

	envelope, err := codec.EncodeRecord(domain.PrivateRecord{
		Amount: "1", Blinding: "2", Index: 3, AssetID: "SOL",
	})
	require.NoError(t, err)

	_, err = other.Decrypt(envelope)
	assertCodecError(t, err, apperror.CodeAuthenticationFailed)

	_, err = other.DecodeRecord(envelope)
	assertCodecError(t, err, apperror.CodeAuthenticationFailed)
}

func TestRecordCodec_EnvelopeTooShort(t *testing.T) {
	codec := newTestCodec(t, 0x01)

	for size := 0; size < domain.EnvelopeHeaderSize; size++ {
		_, err := codec.Decrypt(make([]byte, size))
		assertCodecError(t, err, apperror.CodeMalformedEnvelope)
	}
}

func TestRecordCodec_IVUniqueness(t *testing.T) {
	codec := newTestCodec(t, 0x01)

	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		envelope, err := codec.Encrypt([]byte("same plaintext"))
		require.NoError(t, err)

		iv := string(envelope[:16])
		_, dup := seen[iv]
		require.False(t, dup, "IV reused after %d encryptions", i)
		seen[iv] = struct{}{}
	}
}

func TestRecordCodec_EncodeRejectsInvalidRecord(t *testing.T) {
	codec := newTestCodec(t, 0x01)

	_, err := codec.EncodeRecord(domain.PrivateRecord{
		Amount: "not-a-number", Blinding: "1", Index: 0, AssetID: "SOL",
	})
	assertCodecError(t, err, apperror.CodeInvalidRecordFormat)

	_, err = codec.EncodeRecord(domain.PrivateRecord{
		Amount: "10", Blinding: "1", Index: 0, AssetID: "S|OL",
	})
	assertCodecError(t, err, apperror.CodeInvalidRecordFormat)
}

func TestRecordCodec_DecodeInvalidFormat(t *testing.T) {
	codec := newTestCodec(t, 0x01)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"too few fields", "100|7|3"},
		{"too many fields", "100|7|3|SOL|extra"},
		{"empty field", "100||3|SOL"},
		{"trailing empty field", "100|7|3|"},
		{"non-numeric index", "100|7|three|SOL"},
		{"negative index", "100|7|-3|SOL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Authenticates fine; only the parse step fails.
			envelope, err := codec.Encrypt([]byte(tt.plaintext))
			require.NoError(t, err)

			_, err = codec.DecodeRecord(envelope)
			assertCodecError(t, err, apperror.CodeInvalidRecordFormat)
		})
	}
}

func TestRecordCodec_IdentitySeed(t *testing.T) {
	codec := newTestCodec(t, 0x01)
	same := newTestCodec(t, 0x01)
	other := newTestCodec(t, 0x02)

	seed := codec.IdentitySeed()
	assert.Regexp(t, `^[0-9a-f]{64}$`, seed)
	assert.Equal(t, seed, same.IdentitySeed(), "seed is deterministic per key")
	assert.NotEqual(t, seed, other.IdentitySeed())
}

func TestRecordCodec_EndToEnd(t *testing.T) {
	// Fixed mock signature 0x01, 0x02, ... — the full pipeline from signing
	// capability to decoded record.
	key, err := DeriveRecordKey(&fixedSigner{sig: testSignature(0x01)})
	require.NoError(t, err)
	codec, err := NewRecordCodec(key)
	require.NoError(t, err)

	record := domain.PrivateRecord{
		Amount:   "1000000000",
		Blinding: "42",
		Index:    3,
		AssetID:  "SOL",
	}

	envelope, err := codec.EncodeRecord(record)
	require.NoError(t, err)

	decoded, err := codec.DecodeRecord(envelope)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)

	// The same envelope under a key derived from a different signature
	// must fail authentication.
	otherKey, err := DeriveRecordKey(&fixedSigner{sig: testSignature(0xA0)})
	require.NoError(t, err)
	otherCodec, err := NewRecordCodec(otherKey)
	require.NoError(t, err)

	_, err = otherCodec.DecodeRecord(envelope)
	assertCodecError(t, err, apperror.CodeAuthenticationFailed)
}
