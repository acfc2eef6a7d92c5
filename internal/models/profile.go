package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a student profile. WalletAddress is linked out-of-band via the
// wallet connection flow and is a precondition for minting on their behalf.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Bio           *string   `json:"bio,omitempty"`
	University    *string   `json:"university,omitempty"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	WalletAddress *string   `json:"wallet_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasWallet reports whether the profile has a linked on-chain address.
func (p *Profile) HasWallet() bool {
	return p.WalletAddress != nil && *p.WalletAddress != ""
}
