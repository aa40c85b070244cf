package dto

// RegisterRequest is the request body for client registration.
type RegisterRequest struct {
	Name string `json:"name" binding:"required,min=3,max=100"`
}

// RegisterResponse is the response body for successful registration.
// The secret is returned exactly once.
type RegisterResponse struct {
	ClientID  string `json:"client_id"`
	AccessKey string `json:"access_key"`
	Secret    string `json:"secret"`
}

// TokenRequest is the request body for token issuance.
type TokenRequest struct {
	AccessKey string `json:"access_key" binding:"required"`
	Secret    string `json:"secret" binding:"required"`
}

// TokenResponse is the response body for successful token issuance.
type TokenResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// LedgerEventRequest is the request body for notifier webhook deliveries.
type LedgerEventRequest struct {
	Slot   uint64 `json:"slot"`
	Reason string `json:"reason,omitempty"`
}

// SubmitRecordRequest is the request body for indexing a new record.
type SubmitRecordRequest struct {
	OwnerID    string   `json:"owner_id" binding:"required,uuid"`
	Commitment string   `json:"commitment" binding:"required,max=128"`
	LeafIndex  uint64   `json:"leaf_index"`
	Amount     string   `json:"amount" binding:"required"`
	Blinding   string   `json:"blinding" binding:"required"`
	AssetID    string   `json:"asset_id" binding:"required,max=64"`
	Spends     []string `json:"spends,omitempty"`
}

// DecryptedRecord carries the plaintext fields of a record when the caller
// requested server-side decryption.
type DecryptedRecord struct {
	Amount   string `json:"amount"`
	Blinding string `json:"blinding"`
	Index    uint64 `json:"index"`
	AssetID  string `json:"asset_id"`
}

// RecordResponse is the response body for a single indexed record.
type RecordResponse struct {
	Commitment string           `json:"commitment"`
	LeafIndex  uint64           `json:"leaf_index"`
	AssetID    string           `json:"asset_id"`
	Envelope   string           `json:"envelope"` // base64
	CreatedAt  string           `json:"created_at"`
	Decrypted  *DecryptedRecord `json:"decrypted,omitempty"`
}

// RecordListResponse is the response body for a record listing.
type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
	Count   int              `json:"count"`
}
