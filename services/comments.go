package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repository"
)

// CommentService creates and edits comments. Deletion goes through CascadeDeleter.
type CommentService struct {
	store repository.Store
	log   *zap.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(store repository.Store, log *zap.Logger) *CommentService {
	return &CommentService{store: store, log: log}
}

// CreateComment attaches a comment to an existing post, optionally as a reply
// to an existing comment of that same post. Any authenticated actor may comment.
func (s *CommentService) CreateComment(ctx context.Context, actor auth.Identity, postID uint, parentCommentID *uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput("content cannot be empty")
	}

	if _, err := s.store.Posts().FindByID(ctx, postID); err != nil {
		return nil, lookupFailure(err, ErrPostNotFound)
	}
	if parentCommentID != nil {
		parent, err := s.store.Comments().FindByID(ctx, *parentCommentID)
		if err != nil {
			return nil, lookupFailure(err, ErrCommentNotFound)
		}
		if parent.PostID != postID {
			return nil, invalidInput("parent comment belongs to another post")
		}
	}

	comment := &models.Comment{
		UserID:          actor.SubjectID,
		PostID:          postID,
		ParentCommentID: parentCommentID,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, storeFailure(err)
	}
	s.log.Info("comment created",
		zap.Uint("comment_id", comment.ID), zap.Uint("post_id", postID), zap.Uint("actor_id", actor.SubjectID))
	return comment, nil
}

// UpdateComment replaces the comment content when the actor owns it or is an admin.
func (s *CommentService) UpdateComment(ctx context.Context, actor auth.Identity, commentID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput("content cannot be empty")
	}

	comment, err := s.store.Comments().FindByID(ctx, commentID)
	if err != nil {
		return nil, lookupFailure(err, ErrCommentNotFound)
	}
	if !auth.Authorize(actor, comment.UserID) {
		return nil, ErrUnauthorized
	}

	now := time.Now().UTC()
	comment.Content = content
	comment.ModifiedAt = &now
	if err := s.store.Comments().Update(ctx, comment); err != nil {
		return nil, storeFailure(err)
	}
	return comment, nil
}
