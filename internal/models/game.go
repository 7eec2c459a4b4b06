// Package models contains data structures for the application's domain models.
package models

// SteamIDPrefix is prepended to catalog IDs so Steam-sourced games can never
// collide with locally-added games, whose IDs are small integers.
const SteamIDPrefix = "steam_"

// CatalogGame is a raw row of the catalog `games` table served by the
// /api/steam-games endpoints. Price is stored in cents.
type CatalogGame struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Image string `json:"image"`
	Price int64  `json:"price"`
}

// TableName keeps the table name the catalog database was created with.
func (CatalogGame) TableName() string { return "games" }

// Game is the unified shape shared by Steam-sourced and locally-added games.
// ID is globally unique across both provenances; Steam games carry
// ID = "steam_" + SteamID. Rating is derived once at ingestion and never
// changed by user reviews.
type Game struct {
	ID          string  `json:"id"`
	SteamID     string  `json:"steamId,omitempty"`
	Title       string  `json:"title"`
	Platform    string  `json:"platform"`
	Genre       string  `json:"genre"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	ImageURL    string  `json:"imageUrl"`
	Price       float64 `json:"price,omitempty"`
	IsSteamGame bool    `json:"isSteamGame"`
}

// GameFilter holds the optional filter/sort criteria for catalog queries.
// An empty field is a no-op for that stage, not an exclusion.
type GameFilter struct {
	Platform string `json:"platform" query:"platform"`
	Genre    string `json:"genre" query:"genre"`
	Search   string `json:"search" query:"search"`
	Sort     string `json:"sort" query:"sort"`
}

// Sort values accepted by GameFilter.Sort. Rating descending is the default.
const (
	SortRatingDesc = "rating"
	SortRatingAsc  = "rating-asc"
	SortNameAsc    = "name"
	SortNameDesc   = "name-desc"
)
