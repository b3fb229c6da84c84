package testmodels

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// RatingSystemIndexMap addresses rating systems in a single-table layout.
var RatingSystemIndexMap = map[string]string{
	"PK":     "RS#{ID}",
	"SK":     "RS#{ID}",
	"GSI1PK": "SITE#{SiteURL}",
}

type RatingSystem struct {

	// Timestamp when the rating system was created.
	// Required: true
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt"`

	// A description of the rating system.
	// Required: true
	Description *string `json:"Description"`

	// Unique identifier for the rating system.
	// Required: true
	ID *string `json:"Id" entity:"id"`

	// Name of the rating system.
	// Required: true
	Name *string `json:"Name"`

	// site Url
	SiteURL string `json:"SiteUrl,omitempty"`

	// Timestamp when the rating system was last updated.
	// Required: true
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"UpdatedAt"`
}

// NewRatingSystem returns a populated rating system stamped with the current time.
func NewRatingSystem(id, name, description string) RatingSystem {
	now := strfmt.DateTime(time.Now().UTC())
	return RatingSystem{
		ID:          &id,
		Name:        &name,
		Description: &description,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
}
