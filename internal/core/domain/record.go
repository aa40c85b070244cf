package domain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnvelopeHeaderSize is the fixed prefix of every ciphertext envelope:
// a 16-byte IV followed by a 16-byte authentication tag. Any envelope
// shorter than this is malformed.
const EnvelopeHeaderSize = 32

// PrivateRecord is the confidential balance entry ("UTXO") protected by the
// record codec. Amount and blinding are arbitrary-precision integers carried
// as decimal strings; index is the record's position in the external
// commitment tree.
type PrivateRecord struct {
	Amount   string `json:"amount"`
	Blinding string `json:"blinding"`
	Index    uint64 `json:"index"`
	AssetID  string `json:"asset_id"`
}

// Validate checks that a record is encodable: amount is a non-negative
// decimal integer, blinding is a decimal integer, and the asset identifier
// is non-empty and free of the field delimiter.
func (r PrivateRecord) Validate() error {
	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok {
		return fmt.Errorf("amount %q is not a decimal integer", r.Amount)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("amount %q is negative", r.Amount)
	}
	if _, ok := new(big.Int).SetString(r.Blinding, 10); !ok {
		return fmt.Errorf("blinding %q is not a decimal integer", r.Blinding)
	}
	if r.AssetID == "" {
		return fmt.Errorf("asset id is empty")
	}
	if strings.ContainsRune(r.AssetID, '|') {
		return fmt.Errorf("asset id %q contains the field delimiter", r.AssetID)
	}
	return nil
}

// LedgerRecord is a stored ledger entry: the public commitment plus the
// opaque encrypted envelope published alongside it. The envelope is immutable
// once produced.
type LedgerRecord struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Commitment string    `json:"commitment"`
	LeafIndex  uint64    `json:"leaf_index"`
	AssetID    string    `json:"asset_id"`
	Envelope   []byte    `json:"envelope"` // IV || tag || ciphertext
	Spent      bool      `json:"spent"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the stored-record invariants.
func (r LedgerRecord) Validate() error {
	if r.Commitment == "" {
		return fmt.Errorf("commitment is empty")
	}
	if len(r.Envelope) < EnvelopeHeaderSize {
		return fmt.Errorf("envelope shorter than %d bytes", EnvelopeHeaderSize)
	}
	return nil
}
