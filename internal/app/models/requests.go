package models

import "github.com/google/uuid"

// SearchRequest is a validated nearby-search request. Filter fields are
// optional; when both are present they apply together (AND).
type SearchRequest struct {
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	MaxDistanceKm     *float64 `json:"max_distance_km,omitempty"`
	MaxWalkingTimeMin *int     `json:"max_walking_time_min,omitempty"`
}

// CreateShopRequest creates or updates a shop by external place identifier,
// optionally recording an initial metadata contribution in the same
// transaction.
type CreateShopRequest struct {
	PlaceID string `json:"place_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	// Pointers so a shop on the equator or prime meridian still binds;
	// "required" on a plain float64 treats 0 as absent.
	Latitude  *float64            `json:"latitude" binding:"required"`
	Longitude *float64            `json:"longitude" binding:"required"`
	Address   string              `json:"address"`
	Rating    *float64            `json:"rating"`
	PhotoRefs []string            `json:"photo_refs"`
	Metadata  *AddMetadataRequest `json:"metadata"`
}

// AddMetadataRequest appends a metadata contribution to a shop. All fields
// are optional but at least one must be present.
type AddMetadataRequest struct {
	Rating          *int    `json:"rating"`
	Items           *string `json:"items"`
	SellsRestricted *bool   `json:"sells_restricted"`
	Contributor     *string `json:"contributor"`
}

// AddReviewRequest appends a review to a shop.
type AddReviewRequest struct {
	Body     string  `json:"body" binding:"required"`
	Reviewer *string `json:"reviewer"`
}

// UserAuth carries credential fields for the auth domain.
type UserAuth struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
}
