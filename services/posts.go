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

// PostService creates and edits posts. Deletion goes through CascadeDeleter.
type PostService struct {
	store repository.Store
	cache FeedCache
	log   *zap.Logger
}

// NewPostService creates a PostService. cache may be nil.
func NewPostService(store repository.Store, cache FeedCache, log *zap.Logger) *PostService {
	return &PostService{store: store, cache: cache, log: log}
}

// CreatePost stores a new post owned by the actor.
func (s *PostService) CreatePost(ctx context.Context, actor auth.Identity, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput("content cannot be empty")
	}

	post := &models.Post{UserID: actor.SubjectID, Content: content, CreatedAt: time.Now().UTC()}
	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, storeFailure(err)
	}
	invalidateFeed(ctx, s.cache)
	s.log.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("actor_id", actor.SubjectID))
	return post, nil
}

// UpdatePost replaces the post content when the actor owns the post or is an admin.
func (s *PostService) UpdatePost(ctx context.Context, actor auth.Identity, postID uint, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput("content cannot be empty")
	}

	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		return nil, lookupFailure(err, ErrPostNotFound)
	}
	if !auth.Authorize(actor, post.UserID) {
		return nil, ErrUnauthorized
	}

	now := time.Now().UTC()
	post.Content = content
	post.ModifiedAt = &now
	if err := s.store.Posts().Update(ctx, post); err != nil {
		return nil, storeFailure(err)
	}
	invalidateFeed(ctx, s.cache)
	s.log.Info("post updated", zap.Uint("post_id", post.ID), zap.Uint("actor_id", actor.SubjectID))
	return post, nil
}
