package models

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a tea shop entry in the directory. PlaceID is the stable
// external place identifier and is unique; re-submitting the same PlaceID
// updates name/address/rating in place instead of inserting a duplicate.
type Shop struct {
	ID        uuid.UUID `json:"id"`
	PlaceID   string    `json:"place_id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address,omitempty"`
	Rating    *float64  `json:"rating,omitempty"`
	PhotoRefs []string  `json:"photo_refs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ShopMetadata is one community-submitted metadata contribution. Rows are
// append-only; a shop's "current" metadata is the newest row, history is
// every row newest-first.
type ShopMetadata struct {
	ID              uuid.UUID `json:"id"`
	ShopID          uuid.UUID `json:"shop_id"`
	Rating          *int      `json:"rating,omitempty"`
	Items           *string   `json:"items,omitempty"`
	SellsRestricted bool      `json:"sells_restricted"`
	Contributor     *string   `json:"contributor,omitempty"`
	ContributedAt   time.Time `json:"contributed_at"`
}

// Review is a free-text community review, append-only, newest-first for
// display.
type Review struct {
	ID        uuid.UUID  `json:"id"`
	ShopID    uuid.UUID  `json:"shop_id"`
	Body      string     `json:"body"`
	Reviewer  string     `json:"reviewer"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Candidate is a shop returned by the radius query, before walking-distance
// enrichment.
type Candidate struct {
	Shop               Shop
	StraightLineMeters float64
	Current            *ShopMetadata
}

// RankedResult is a search hit after enrichment, filtering and sorting.
// Distances are kilometres rounded to two decimals, walking time whole
// minutes. Not persisted.
type RankedResult struct {
	Shop           Shop          `json:"shop"`
	Current        *ShopMetadata `json:"current_metadata,omitempty"`
	StraightLineKm float64       `json:"straight_line_km"`
	WalkingKm      float64       `json:"walking_km"`
	WalkingMinutes int           `json:"walking_minutes"`
}

// ShopDetail is the detail-page payload: the shop joined with its current
// metadata, full metadata history and review list.
type ShopDetail struct {
	Shop            Shop           `json:"shop"`
	Current         *ShopMetadata  `json:"current_metadata,omitempty"`
	MetadataHistory []ShopMetadata `json:"metadata_history"`
	Reviews         []Review       `json:"reviews"`
}
