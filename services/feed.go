package services

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repository"
)

// FeedAssembler builds paginated, author enriched views of posts and comments.
type FeedAssembler struct {
	store repository.Store
	cache FeedCache
	log   *zap.Logger
}

// NewFeedAssembler creates a FeedAssembler. cache may be nil.
func NewFeedAssembler(store repository.Store, cache FeedCache, log *zap.Logger) *FeedAssembler {
	return &FeedAssembler{store: store, cache: cache, log: log}
}

func pageQuery(page, pageSize int) (repository.ViewQuery, error) {
	if page < 1 || pageSize < 1 {
		return repository.ViewQuery{}, invalidInput("page and pageSize must be positive")
	}
	if page-1 > math.MaxInt/pageSize {
		return repository.ViewQuery{}, invalidInput("page is out of range")
	}
	return repository.ViewQuery{Offset: (page - 1) * pageSize, Limit: pageSize}, nil
}

// ListPosts returns one page of posts, most recent first.
func (f *FeedAssembler) ListPosts(ctx context.Context, page, pageSize int) ([]models.PostView, error) {
	query, err := pageQuery(page, pageSize)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%slist:page=%d:size=%d", FeedCachePrefix, page, pageSize)
	var cached []models.PostView
	if cacheGet(ctx, f.cache, key, &cached) {
		return cached, nil
	}

	views, err := f.store.Posts().ListViews(ctx, query)
	if err != nil {
		f.log.Error("list posts failed", zap.Int("page", page), zap.Int("page_size", pageSize), zap.Error(err))
		return nil, storeFailure(err)
	}
	cacheSet(ctx, f.cache, key, views)
	return views, nil
}

// ListPostsByUsername returns every post whose joined author is username, most recent first.
func (f *FeedAssembler) ListPostsByUsername(ctx context.Context, username string) ([]models.PostView, error) {
	username = normalize(username)
	if username == "" {
		return nil, invalidInput("username is required")
	}
	views, err := f.store.Posts().ListViews(ctx, repository.ViewQuery{Author: username})
	if err != nil {
		return nil, storeFailure(err)
	}
	return views, nil
}

// ListCommentsByUsername returns one page of the comments written by username, most recent first.
func (f *FeedAssembler) ListCommentsByUsername(ctx context.Context, page, pageSize int, username string) ([]models.CommentView, error) {
	query, err := pageQuery(page, pageSize)
	if err != nil {
		return nil, err
	}
	username = normalize(username)
	if username == "" {
		return nil, invalidInput("username is required")
	}
	query.Author = username

	views, err := f.store.Comments().ListViews(ctx, query)
	if err != nil {
		return nil, storeFailure(err)
	}
	return views, nil
}

// GetPostView returns a single enriched post.
func (f *FeedAssembler) GetPostView(ctx context.Context, postID uint) (*models.PostView, error) {
	view, err := f.store.Posts().FindViewByID(ctx, postID)
	if err != nil {
		return nil, lookupFailure(err, ErrPostNotFound)
	}
	return view, nil
}

// ListCommentsByPost returns the whole comment thread of a post, oldest first.
func (f *FeedAssembler) ListCommentsByPost(ctx context.Context, postID uint) ([]models.CommentView, error) {
	if _, err := f.store.Posts().FindByID(ctx, postID); err != nil {
		return nil, lookupFailure(err, ErrPostNotFound)
	}
	views, err := f.store.Comments().ListViews(ctx, repository.ViewQuery{PostID: postID, OldestFirst: true})
	if err != nil {
		return nil, storeFailure(err)
	}
	return views, nil
}
