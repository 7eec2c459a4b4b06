package models

import "time"

// User is a registered-user record kept in the user registry.
// Email and username are each unique across the registry (case-insensitive).
// The password is stored as provided; this application has no credential
// security story. Collection holds each game ID at most once.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	ProfileImage string     `json:"profileImage,omitempty"`
	Collection   []string   `json:"collection"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

// Session is the authenticated-user projection, persisted independently of
// the full user record.
type Session struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	ProfileImage string   `json:"profileImage,omitempty"`
	Collection   []string `json:"collection,omitempty"`
	IsLoggedIn   bool     `json:"isLoggedIn"`
}
