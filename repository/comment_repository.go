package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/postapi/models"
)

// CommentRepository defines comment persistence operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id uint) (*models.Comment, error)
	// IDsByPost returns the ids of every comment attached to the post at any depth.
	IDsByPost(ctx context.Context, postID uint) ([]uint, error)
	// ChildIDs returns the ids of comments replying directly to any of parentIDs.
	ChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	ListViews(ctx context.Context, query ViewQuery) ([]models.CommentView, error)
}

type commentRepository struct {
	db *gorm.DB
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) IDsByPost(ctx context.Context, postID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) ChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error) {
	ids := []uint{}
	if len(parentIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("parent_comment_id IN ?", parentIDs).Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

// ListViews returns comments left joined with their owners, most recent first.
func (r *commentRepository) ListViews(ctx context.Context, query ViewQuery) ([]models.CommentView, error) {
	q := r.db.WithContext(ctx).Table("comments").
		Select(`comments.id AS comment_id, comments.post_id AS post_id,
			comments.parent_comment_id AS parent_comment_id, comments.user_id AS user_id,
			COALESCE(users.username, '') AS author,
			COALESCE(users.first_name, '') AS first_name,
			COALESCE(users.last_name, '') AS last_name,
			CASE WHEN users.id IS NULL THEN ? ELSE COALESCE(users.profile_picture, '') END AS profile_picture,
			comments.content AS content, comments.created_at AS created_at, comments.modified_at AS modified_at`,
			models.MissingProfilePicture).
		Joins("LEFT JOIN users ON users.id = comments.user_id")
	if query.Author != "" {
		q = q.Where("COALESCE(users.username, '') = ?", query.Author)
	}
	if query.PostID != 0 {
		q = q.Where("comments.post_id = ?", query.PostID)
	}
	if query.OldestFirst {
		q = q.Order("comments.created_at ASC").Order("comments.id ASC")
	} else {
		q = q.Order("comments.created_at DESC").Order("comments.id DESC")
	}

	views := []models.CommentView{}
	if err := applyPaging(q, query).Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}
