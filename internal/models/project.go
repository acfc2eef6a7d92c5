package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectCategoryType defines the fixed category set for portfolio projects.
type ProjectCategoryType string

const (
	CategoryResidential ProjectCategoryType = "residential"
	CategoryCommercial  ProjectCategoryType = "commercial"
	CategoryUrbanism    ProjectCategoryType = "urbanism"
	CategoryInterior    ProjectCategoryType = "interior"
	CategoryLandscape   ProjectCategoryType = "landscape"
	CategoryAcademic    ProjectCategoryType = "academic"
	CategoryOther       ProjectCategoryType = "other"
)

// Project is a published portfolio project. Owned by its creating user;
// only the mint flow flips PoapGenerated.
type Project struct {
	ID            uuid.UUID           `json:"id"`
	OwnerID       uuid.UUID           `json:"owner_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	ImageURLs     []string            `json:"image_urls"`
	Category      ProjectCategoryType `json:"category"`
	University    *string             `json:"university,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	PoapGenerated bool                `json:"poap_generated"`
	CreatedAt     time.Time           `json:"created_at"`
}
