package dtos

import (
	"github.com/gitarch/poap-service/internal/models"
)

// ----------------------
// Requests
// ----------------------

type MintPoapRequest struct {
	ProjectID string `json:"project_id" validate:"required,uuid"`
	UserID    string `json:"user_id" validate:"required,uuid"`
	// Optional override; when absent the profile's linked wallet is used.
	WalletAddress string `json:"wallet_address,omitempty" validate:"omitempty,min=32,max=64"`
}

// ----------------------
// Responses
// ----------------------

type MintPoapResponse struct {
	Poap    *models.Poap `json:"poap"`
	Message string       `json:"message"`
}

type PoapListResponse struct {
	Poaps []*models.Poap `json:"poaps"`
}

type MetadataURLResponse struct {
	URL string `json:"url"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}
