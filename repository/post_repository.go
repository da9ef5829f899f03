package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/postapi/models"
)

// PostRepository defines post persistence operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) (int64, error)
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	FindViewByID(ctx context.Context, id uint) (*models.PostView, error)
	ListViews(ctx context.Context, query ViewQuery) ([]models.PostView, error)
}

type postRepository struct {
	db *gorm.DB
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	return res.RowsAffected, res.Error
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// postViews left joins posts with their owners. A post whose owner row is
// gone keeps empty author fields and the MissingProfilePicture sentinel.
func (r *postRepository) postViews(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("posts").
		Select(`posts.id AS post_id, posts.user_id AS user_id,
			COALESCE(users.username, '') AS author,
			COALESCE(users.first_name, '') AS first_name,
			COALESCE(users.last_name, '') AS last_name,
			CASE WHEN users.id IS NULL THEN ? ELSE COALESCE(users.profile_picture, '') END AS profile_picture,
			posts.content AS content, posts.created_at AS created_at, posts.modified_at AS modified_at`,
			models.MissingProfilePicture).
		Joins("LEFT JOIN users ON users.id = posts.user_id")
}

func (r *postRepository) FindViewByID(ctx context.Context, id uint) (*models.PostView, error) {
	var views []models.PostView
	if err := r.postViews(ctx).Where("posts.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrRecordNotFound
	}
	return &views[0], nil
}

// ListViews returns enriched posts, most recent first. The author filter runs
// against the joined author column, so it only sees rows after the join.
func (r *postRepository) ListViews(ctx context.Context, query ViewQuery) ([]models.PostView, error) {
	q := r.postViews(ctx)
	if query.Author != "" {
		q = q.Where("COALESCE(users.username, '') = ?", query.Author)
	}
	if query.OldestFirst {
		q = q.Order("posts.created_at ASC").Order("posts.id ASC")
	} else {
		q = q.Order("posts.created_at DESC").Order("posts.id DESC")
	}

	views := []models.PostView{}
	if err := applyPaging(q, query).Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}
