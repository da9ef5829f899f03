package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles recognised by the authorization guard.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	FirstName      string     `gorm:"size:64" json:"first_name"`
	LastName       string     `gorm:"size:64" json:"last_name"`
	Role           string     `gorm:"size:16;not null;default:user" json:"role"`
	Gender         string     `gorm:"size:16" json:"gender"`
	Birthday       *time.Time `json:"birthday"`
	ProfilePicture string     `gorm:"size:512" json:"profile_picture"`
	Bio            string     `gorm:"size:512" json:"bio"`
	Status         string     `gorm:"size:128" json:"status"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// UserLimited is the public subset of a user returned after signup and login.
type UserLimited struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

// Limited projects the user onto its public subset.
func (u User) Limited() UserLimited {
	return UserLimited{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}
