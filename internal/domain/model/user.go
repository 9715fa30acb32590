package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserUpdate carries the self-service profile fields; nil means unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
}

func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil
}
