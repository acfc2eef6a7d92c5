package models

import (
	"time"

	"github.com/google/uuid"
)

// Poap is one attestation record: the durable outcome of a mint. Created
// exactly once per successful mint attempt and never mutated afterwards.
// Multiple records may reference the same project (one per attesting user,
// duplicates permitted).
type Poap struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	ProjectID       uuid.UUID `json:"project_id"`
	TransactionHash string    `json:"transaction_hash"`
	MetadataURI     string    `json:"metadata_uri"`
	TokenID         string    `json:"token_id"`
	ContractAddress string    `json:"contract_address"`
	IsSimulated     bool      `json:"is_simulated"`
	CreatedAt       time.Time `json:"created_at"`
}
