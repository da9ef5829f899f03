package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/repository"
)

// errNothingRemoved aborts a cascade whose root row vanished concurrently.
var errNothingRemoved = errors.New("nothing removed")

// CascadeDeleter removes posts and comments together with every reply below them.
type CascadeDeleter struct {
	store repository.Store
	cache FeedCache
	log   *zap.Logger
}

// NewCascadeDeleter creates a CascadeDeleter. cache may be nil.
func NewCascadeDeleter(store repository.Store, cache FeedCache, log *zap.Logger) *CascadeDeleter {
	return &CascadeDeleter{store: store, cache: cache, log: log}
}

// DeletePost removes the post and every comment reachable from it in one
// transaction. It reports false without error when the post row was already
// gone by the time the transaction ran.
func (d *CascadeDeleter) DeletePost(ctx context.Context, postID uint, actor auth.Identity) (bool, error) {
	post, err := d.store.Posts().FindByID(ctx, postID)
	if err != nil {
		return false, lookupFailure(err, ErrPostNotFound)
	}
	if !auth.Authorize(actor, post.UserID) {
		d.log.Warn("post delete denied",
			zap.Uint("post_id", postID), zap.Uint("owner_id", post.UserID), zap.Uint("actor_id", actor.SubjectID))
		return false, ErrUnauthorized
	}

	var comments int
	err = d.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		seed, err := tx.Comments().IDsByPost(ctx, postID)
		if err != nil {
			return err
		}
		ids, err := collectSubtree(ctx, tx.Comments(), seed)
		if err != nil {
			return err
		}
		if _, err := tx.Comments().DeleteByIDs(ctx, ids); err != nil {
			return err
		}
		removed, err := tx.Posts().Delete(ctx, postID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return errNothingRemoved
		}
		comments = len(ids)
		return nil
	})
	return d.finish(ctx, err, "post", postID, actor, comments)
}

// DeleteComment removes the comment and all of its descendant replies in one
// transaction. The parent post and sibling comments are left untouched.
func (d *CascadeDeleter) DeleteComment(ctx context.Context, commentID uint, actor auth.Identity) (bool, error) {
	comment, err := d.store.Comments().FindByID(ctx, commentID)
	if err != nil {
		return false, lookupFailure(err, ErrCommentNotFound)
	}
	if !auth.Authorize(actor, comment.UserID) {
		d.log.Warn("comment delete denied",
			zap.Uint("comment_id", commentID), zap.Uint("owner_id", comment.UserID), zap.Uint("actor_id", actor.SubjectID))
		return false, ErrUnauthorized
	}

	var replies int
	err = d.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		ids, err := collectSubtree(ctx, tx.Comments(), []uint{commentID})
		if err != nil {
			return err
		}
		// ids[0] is the root; replies go first so the root count tells us
		// whether anything was still there.
		if _, err := tx.Comments().DeleteByIDs(ctx, ids[1:]); err != nil {
			return err
		}
		removed, err := tx.Comments().DeleteByIDs(ctx, ids[:1])
		if err != nil {
			return err
		}
		if removed == 0 {
			return errNothingRemoved
		}
		replies = len(ids) - 1
		return nil
	})
	return d.finish(ctx, err, "comment", commentID, actor, replies)
}

func (d *CascadeDeleter) finish(ctx context.Context, err error, kind string, id uint, actor auth.Identity, dependents int) (bool, error) {
	switch {
	case errors.Is(err, errNothingRemoved):
		d.log.Info(kind+" already removed", zap.Uint("id", id), zap.Uint("actor_id", actor.SubjectID))
		return false, nil
	case err != nil:
		d.log.Error(kind+" cascade rolled back", zap.Uint("id", id), zap.Uint("actor_id", actor.SubjectID), zap.Error(err))
		return false, storeFailure(err)
	}

	invalidateFeed(ctx, d.cache)
	d.log.Info(kind+" deleted",
		zap.Uint("id", id), zap.Uint("actor_id", actor.SubjectID), zap.Int("dependent_comments", dependents))
	return true, nil
}

// collectSubtree walks reply links breadth first from the seed ids and returns
// every reachable comment id, seeds first. Visited ids are never expanded
// twice, so reference cycles in stored data cannot loop forever.
func collectSubtree(ctx context.Context, comments repository.CommentRepository, seed []uint) ([]uint, error) {
	visited := make(map[uint]struct{}, len(seed))
	ids := make([]uint, 0, len(seed))

	frontier := seed
	for len(frontier) > 0 {
		fresh := make([]uint, 0, len(frontier))
		for _, id := range frontier {
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			fresh = append(fresh, id)
		}
		if len(fresh) == 0 {
			break
		}
		ids = append(ids, fresh...)

		children, err := comments.ChildIDs(ctx, fresh)
		if err != nil {
			return nil, err
		}
		frontier = children
	}
	return ids, nil
}
