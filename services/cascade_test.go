package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repository"
)

type thread struct {
	u1, u2, u3, admin *models.User
	p1, p2            *models.Post
	c1, c2, c3        *models.Comment
}

// seedThread builds P1 (U1) <- C1 (U2) <- C2 (U3), plus P2 with C3 as bystanders.
func seedThread(t *testing.T, f *fixture) thread {
	var th thread
	th.u1 = f.user(t, "u1", models.RoleUser)
	th.u2 = f.user(t, "u2", models.RoleUser)
	th.u3 = f.user(t, "u3", models.RoleUser)
	th.admin = f.user(t, "root", models.RoleAdmin)
	th.p1 = f.post(t, th.u1.ID, "p1", epoch)
	th.p2 = f.post(t, th.u2.ID, "p2", epoch.Add(1))
	th.c1 = f.comment(t, th.u2.ID, th.p1.ID, nil, "c1", epoch)
	th.c2 = f.comment(t, th.u3.ID, th.p1.ID, ptr(th.c1.ID), "c2", epoch)
	th.c3 = f.comment(t, th.u1.ID, th.p2.ID, nil, "c3", epoch)
	return th
}

func TestDeletePost_OwnerRemovesWholeThread(t *testing.T) {
	f := newFixture(t)
	th := seedThread(t, f)
	cache := &mockCache{}
	cache.On("InvalidatePrefix", mock.Anything, FeedCachePrefix).Once()

	removed, err := NewCascadeDeleter(f.store, cache, zap.NewNop()).DeletePost(f.ctx, th.p1.ID, identityOf(th.u1))
	require.NoError(t, err)
	assert.True(t, removed)

	assert.False(t, f.postExists(t, th.p1.ID))
	assert.False(t, f.commentExists(t, th.c1.ID))
	assert.False(t, f.commentExists(t, th.c2.ID))
	assert.True(t, f.postExists(t, th.p2.ID))
	assert.True(t, f.commentExists(t, th.c3.ID))
	cache.AssertExpectations(t)
}

func TestDeletePost_NonOwnerIsRejected(t *testing.T) {
	f := newFixture(t)
	th := seedThread(t, f)
	cache := &mockCache{}

	removed, err := NewCascadeDeleter(f.store, cache, zap.NewNop()).DeletePost(f.ctx, th.p1.ID, identityOf(th.u2))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, removed)

	assert.True(t, f.postExists(t, th.p1.ID))
	assert.True(t, f.commentExists(t, th.c1.ID))
	assert.True(t, f.commentExists(t, th.c2.ID))
	cache.AssertNotCalled(t, "InvalidatePrefix", mock.Anything, mock.Anything)
}

func TestDeletePost_AdminOverridesOwnership(t *testing.T) {
	f := newFixture(t)
	th := seedThread(t, f)

	removed, err := NewCascadeDeleter(f.store, nil, zap.NewNop()).DeletePost(f.ctx, th.p1.ID, identityOf(th.admin))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, f.postExists(t, th.p1.ID))
	assert.False(t, f.commentExists(t, th.c2.ID))
}

func TestDeletePost_Missing(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", models.RoleAdmin)

	removed, err := NewCascadeDeleter(f.store, nil, zap.NewNop()).DeletePost(f.ctx, 404, identityOf(admin))
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, removed)
}

func TestDeletePost_RollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	th := seedThread(t, f)
	require.NoError(t, f.db.Callback().Delete().Before("gorm:delete").Register("test:fail_posts", func(tx *gorm.DB) {
		if tx.Statement.Table == "posts" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	removed, err := NewCascadeDeleter(f.store, nil, zap.NewNop()).DeletePost(f.ctx, th.p1.ID, identityOf(th.u1))
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.False(t, removed)

	assert.True(t, f.postExists(t, th.p1.ID))
	assert.True(t, f.commentExists(t, th.c1.ID))
	assert.True(t, f.commentExists(t, th.c2.ID))
}

// racingStore removes rows after the caller looked them up but before the
// cascade transaction starts.
type racingStore struct {
	repository.Store
	before func(ctx context.Context)
}

func (s racingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.before(ctx)
	return s.Store.WithTransaction(ctx, fn)
}

func TestDeletePost_VanishedRowReportsFalse(t *testing.T) {
	f := newFixture(t)
	th := seedThread(t, f)
	store := racingStore{Store: f.store, before: func(ctx context.Context) {
		_, err := f.store.Posts().Delete(ctx, th.p1.ID)
		require.NoError(t, err)
	}}
	cache := &mockCache{}

	removed, err := NewCascadeDeleter(store, cache, zap.NewNop()).DeletePost(f.ctx, th.p1.ID, identityOf(th.u1))
	require.NoError(t, err)
	assert.False(t, removed)
	// the rolled back transaction left the orphaned comments alone
	assert.True(t, f.commentExists(t, th.c1.ID))
	cache.AssertNotCalled(t, "InvalidatePrefix", mock.Anything, mock.Anything)
}

func TestDeleteComment_RemovesSubtreeOnly(t *testing.T) {
	f := newFixture(t)
	th := seedThread(t, f)
	c4 := f.comment(t, th.u1.ID, th.p1.ID, ptr(th.c2.ID), "c4", epoch)
	sibling := f.comment(t, th.u3.ID, th.p1.ID, nil, "sibling", epoch)

	removed, err := NewCascadeDeleter(f.store, nil, zap.NewNop()).DeleteComment(f.ctx, th.c1.ID, identityOf(th.u2))
	require.NoError(t, err)
	assert.True(t, removed)

	assert.False(t, f.commentExists(t, th.c1.ID))
	assert.False(t, f.commentExists(t, th.c2.ID))
	assert.False(t, f.commentExists(t, c4.ID))
	assert.True(t, f.commentExists(t, sibling.ID))
	assert.True(t, f.postExists(t, th.p1.ID))
}

func TestDeleteComment_Authorization(t *testing.T) {
	f := newFixture(t)
	th := seedThread(t, f)
	d := NewCascadeDeleter(f.store, nil, zap.NewNop())

	// U3 owns the reply, not the parent comment.
	removed, err := d.DeleteComment(f.ctx, th.c1.ID, identityOf(th.u3))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, removed)
	assert.True(t, f.commentExists(t, th.c2.ID))

	// The post owner has no say over comments either.
	_, err = d.DeleteComment(f.ctx, th.c1.ID, identityOf(th.u1))
	assert.ErrorIs(t, err, ErrUnauthorized)

	removed, err = d.DeleteComment(f.ctx, th.c1.ID, identityOf(th.admin))
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = d.DeleteComment(f.ctx, th.c1.ID, identityOf(th.admin))
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCascade_TerminatesOnReplyCycles(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", models.RoleUser)
	post := f.post(t, owner.ID, "p", epoch)
	a := f.comment(t, owner.ID, post.ID, nil, "a", epoch)
	b := f.comment(t, owner.ID, post.ID, ptr(a.ID), "b", epoch)
	self := f.comment(t, owner.ID, post.ID, nil, "self", epoch)
	require.NoError(t, f.db.Model(&models.Comment{}).Where("id = ?", a.ID).Update("parent_comment_id", b.ID).Error)
	require.NoError(t, f.db.Model(&models.Comment{}).Where("id = ?", self.ID).Update("parent_comment_id", self.ID).Error)

	d := NewCascadeDeleter(f.store, nil, zap.NewNop())
	removed, err := d.DeleteComment(f.ctx, a.ID, identityOf(owner))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, f.commentExists(t, a.ID))
	assert.False(t, f.commentExists(t, b.ID))
	assert.True(t, f.commentExists(t, self.ID))

	removed, err = d.DeletePost(f.ctx, post.ID, identityOf(owner))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, f.commentExists(t, self.ID))
}

func TestCollectSubtree_VisitsEachOnce(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", models.RoleUser)
	post := f.post(t, owner.ID, "p", epoch)
	root := f.comment(t, owner.ID, post.ID, nil, "root", epoch)
	left := f.comment(t, owner.ID, post.ID, ptr(root.ID), "l", epoch)
	right := f.comment(t, owner.ID, post.ID, ptr(root.ID), "r", epoch)
	leaf := f.comment(t, owner.ID, post.ID, ptr(left.ID), "leaf", epoch)

	ids, err := collectSubtree(f.ctx, f.store.Comments(), []uint{root.ID, root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, ids[0])
	assert.ElementsMatch(t, []uint{root.ID, left.ID, right.ID, leaf.ID}, ids)
}
