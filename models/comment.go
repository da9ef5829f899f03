package models

import "time"

// Comment is a reply to a post, or to another comment of the same post when
// ParentCommentID is set.
type Comment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"index;not null" json:"user_id"`
	PostID          uint       `gorm:"index;not null" json:"post_id"`
	ParentCommentID *uint      `gorm:"index" json:"parent_comment_id"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	ModifiedAt      *time.Time `json:"modified_at"`
}
