package models

import "time"

// Post is the root of a comment tree. ModifiedAt stays nil until the first edit.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at"`
}
