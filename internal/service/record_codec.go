package service

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"private-ledger-indexer/internal/core/domain"
	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/pkg/apperror"
)

const (
	// RecordKeySize is the length of the derived key: a 16-byte AES-128
	// subkey followed by a 15-byte HMAC subkey.
	RecordKeySize = 31

	cipherKeySize = 16
	ivSize        = 16
	tagSize       = 16

	recordFieldDelimiter = "|"
	recordFieldCount     = 4

	// keyDerivationMessage is the fixed message signed during key
	// derivation. Changing it invalidates every existing envelope.
	keyDerivationMessage = "private-ledger-indexer:record-key:v1"
)

// DeriveRecordKey derives the record encryption key from a signing
// capability: the signature over a fixed constant message, truncated to
// RecordKeySize bytes. The signer must be deterministic, so the same
// capability always yields the same key and nothing needs to be persisted.
func DeriveRecordKey(signer ports.Signer) ([]byte, error) {
	sig, err := signer.Sign([]byte(keyDerivationMessage))
	if err != nil {
		return nil, apperror.ErrSigningFailed(err)
	}
	if len(sig) < RecordKeySize {
		return nil, apperror.ErrSigningFailed(fmt.Errorf("signature too short: %d bytes", len(sig)))
	}
	key := make([]byte, RecordKeySize)
	copy(key, sig[:RecordKeySize])
	return key, nil
}

// RecordCodec implements ports.RecordCodec with AES-128-CTR encryption and a
// truncated HMAC-SHA256 tag over IV || ciphertext. Envelope layout:
//
//	IV (16) || AuthTag (16) || Ciphertext (len(plaintext))
type RecordCodec struct {
	cipherKey []byte // key[0:16]
	macKey    []byte // key[16:31]
}

// NewRecordCodec creates a codec from a derived 31-byte key.
func NewRecordCodec(key []byte) (*RecordCodec, error) {
	if len(key) != RecordKeySize {
		return nil, fmt.Errorf("record key must be %d bytes, got %d", RecordKeySize, len(key))
	}
	c := &RecordCodec{
		cipherKey: make([]byte, cipherKeySize),
		macKey:    make([]byte, RecordKeySize-cipherKeySize),
	}
	copy(c.cipherKey, key[:cipherKeySize])
	copy(c.macKey, key[cipherKeySize:])
	return c, nil
}

// Encrypt seals plaintext into an envelope under a fresh random IV.
// IV reuse under one key breaks confidentiality, so the IV is always drawn
// from the OS CSPRNG and never derived from the plaintext.
func (c *RecordCodec) Encrypt(plaintext []byte) ([]byte, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}

	block, err := aes.NewCipher(c.cipherKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, plaintext)

	envelope := make([]byte, 0, domain.EnvelopeHeaderSize+len(ciphertext))
	envelope = append(envelope, iv...)
	envelope = append(envelope, c.authTag(iv, ciphertext)...)
	envelope = append(envelope, ciphertext...)
	return envelope, nil
}

// Decrypt authenticates and opens an envelope. A wrong key and a tampered
// envelope fail identically with AuthenticationFailed.
func (c *RecordCodec) Decrypt(envelope []byte) ([]byte, error) {
	if len(envelope) < domain.EnvelopeHeaderSize {
		return nil, apperror.ErrMalformedEnvelope()
	}

	iv := envelope[:ivSize]
	tag := envelope[ivSize:domain.EnvelopeHeaderSize]
	ciphertext := envelope[domain.EnvelopeHeaderSize:]

	if !hmac.Equal(tag, c.authTag(iv, ciphertext)) {
		return nil, apperror.ErrAuthenticationFailed()
	}

	block, err := aes.NewCipher(c.cipherKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

// EncodeRecord validates, serializes and encrypts a private record.
// Wire form before encryption: amount|blinding|index|assetId.
func (c *RecordCodec) EncodeRecord(record domain.PrivateRecord) ([]byte, error) {
	if err := record.Validate(); err != nil {
		return nil, apperror.ErrInvalidRecordFormat(err.Error())
	}

	plaintext := strings.Join([]string{
		record.Amount,
		record.Blinding,
		strconv.FormatUint(record.Index, 10),
		record.AssetID,
	}, recordFieldDelimiter)

	return c.Encrypt([]byte(plaintext))
}

// DecodeRecord decrypts an envelope and parses the four-field record form.
// Parse failures after successful authentication surface as
// InvalidRecordFormat, distinct from AuthenticationFailed.
func (c *RecordCodec) DecodeRecord(envelope []byte) (domain.PrivateRecord, error) {
	plaintext, err := c.Decrypt(envelope)
	if err != nil {
		return domain.PrivateRecord{}, err
	}

	parts := strings.Split(string(plaintext), recordFieldDelimiter)
	if len(parts) != recordFieldCount {
		return domain.PrivateRecord{}, apperror.ErrInvalidRecordFormat(
			fmt.Sprintf("expected %d fields, got %d", recordFieldCount, len(parts)))
	}
	for i, part := range parts {
		if part == "" {
			return domain.PrivateRecord{}, apperror.ErrInvalidRecordFormat(
				fmt.Sprintf("field %d is empty", i))
		}
	}

	index, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return domain.PrivateRecord{}, apperror.ErrInvalidRecordFormat(
			fmt.Sprintf("index %q is not an unsigned integer", parts[2]))
	}

	return domain.PrivateRecord{
		Amount:   parts[0],
		Blinding: parts[1],
		Index:    index,
		AssetID:  parts[3],
	}, nil
}

// IdentitySeed returns the hex-encoded SHA-256 of the full key. It is safe
// to derive secondary identity material from: one-way, deterministic per key.
func (c *RecordCodec) IdentitySeed() string {
	sum := sha256.Sum256(bytes.Join([][]byte{c.cipherKey, c.macKey}, nil))
	return hex.EncodeToString(sum[:])
}

// authTag computes HMAC-SHA256 over IV || ciphertext, truncated to 16 bytes.
func (c *RecordCodec) authTag(iv, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(iv)
	mac.Write(ciphertext)
	return mac.Sum(nil)[:tagSize]
}
