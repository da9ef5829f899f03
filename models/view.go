package models

import "time"

// MissingProfilePicture replaces the author picture when the owning user row is gone.
const MissingProfilePicture = "No picture"

// PostView is a post joined with its author.
type PostView struct {
	PostID         uint       `json:"post_id"`
	UserID         uint       `json:"user_id"`
	Author         string     `json:"author"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	ProfilePicture string     `json:"profile_picture"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created"`
	ModifiedAt     *time.Time `json:"modified"`
}

// CommentView is a comment joined with its author.
type CommentView struct {
	CommentID       uint       `json:"comment_id"`
	PostID          uint       `json:"post_id"`
	ParentCommentID *uint      `json:"parent_comment_id"`
	UserID          uint       `json:"user_id"`
	Author          string     `json:"author"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	ProfilePicture  string     `json:"profile_picture"`
	Content         string     `json:"content"`
	CreatedAt       time.Time  `json:"created"`
	ModifiedAt      *time.Time `json:"modified"`
}
