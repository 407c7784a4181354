package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"` // Not exposed
	Role           string     `json:"role"`
	Points         int        `json:"points"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// LoginRecord is one entry of a user's append-only login history.
type LoginRecord struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"userId"`
	LoggedInAt time.Time `json:"loggedInAt"`
}
