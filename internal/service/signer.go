package service

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// Ed25519Signer implements ports.Signer with an Ed25519 private key held in
// memory. Ed25519 signatures are deterministic, which is what makes the
// derived record key stable across process restarts.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer creates a signer from a hex-encoded 32-byte seed.
func NewEd25519Signer(seedHex string) (*Ed25519Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decoding signer seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signer seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// Sign signs message with the held key. The 64-byte signature is a pure
// function of key and message.
func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

// PublicKey returns the signer's public key.
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}
