package services

import (
	"time"

	"github.com/gitarch/poap-service/internal/models"
)

const (
	PlatformName = "GitArch"
	NetworkName  = "Shibuya Testnet"

	defaultPoapDescription = "POAP NFT for an architecture project published on GitArch"
)

// PoapAttribute is one (trait, value) pair of the attestation document.
type PoapAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// PoapMetadata is the attestation document pinned alongside each mint. It is
// never persisted as its own entity; it exists only between the builder and
// the pinning client.
type PoapMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Attributes  []PoapAttribute `json:"attributes"`
}

// BuildPoapMetadata maps a project to its attestation document. Pure except
// for the caller-supplied timestamp. Downstream consumers index attributes
// positionally, so the five required traits are always present in this
// order; a missing university becomes the literal "N/A", never an omission.
func BuildPoapMetadata(project *models.Project, now time.Time) PoapMetadata {
	description := project.Description
	if description == "" {
		description = defaultPoapDescription
	}

	image := ""
	if len(project.ImageURLs) > 0 {
		image = project.ImageURLs[0]
	}

	university := "N/A"
	if project.University != nil && *project.University != "" {
		university = *project.University
	}

	return PoapMetadata{
		Name:        "GitArch POAP - " + project.Title,
		Description: description,
		Image:       image,
		Attributes: []PoapAttribute{
			{TraitType: "Category", Value: string(project.Category)},
			{TraitType: "University", Value: university},
			{TraitType: "Platform", Value: PlatformName},
			{TraitType: "Network", Value: NetworkName},
			{TraitType: "Minted At", Value: now.UTC().Format(time.RFC3339)},
			{TraitType: "Project ID", Value: project.ID.String()},
		},
	}
}
