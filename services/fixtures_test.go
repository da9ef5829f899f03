package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/internal/testdb"
	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repository"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Bool(1)
}

func (m *mockCache) SetJSON(ctx context.Context, key string, v interface{}) {
	m.Called(ctx, key, v)
}

func (m *mockCache) InvalidatePrefix(ctx context.Context, prefix string) {
	m.Called(ctx, prefix)
}

type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	store repository.Store
}

func newFixture(t *testing.T) *fixture {
	db := testdb.New(t)
	return &fixture{ctx: context.Background(), db: db, store: repository.NewStore(db)}
}

func (f *fixture) user(t *testing.T, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		PasswordHash:   "x",
		FirstName:      username + "-first",
		Role:           role,
		ProfilePicture: "https://img.example/" + username + ".png",
	}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return u
}

func (f *fixture) post(t *testing.T, owner uint, content string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{UserID: owner, Content: content, CreatedAt: at}
	require.NoError(t, f.store.Posts().Create(f.ctx, p))
	return p
}

func (f *fixture) comment(t *testing.T, owner, postID uint, parent *uint, content string, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{UserID: owner, PostID: postID, ParentCommentID: parent, Content: content, CreatedAt: at}
	require.NoError(t, f.store.Comments().Create(f.ctx, c))
	return c
}

func (f *fixture) postExists(t *testing.T, id uint) bool {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", id).Count(&n).Error)
	return n > 0
}

func (f *fixture) commentExists(t *testing.T, id uint) bool {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Comment{}).Where("id = ?", id).Count(&n).Error)
	return n > 0
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{SubjectID: u.ID, Role: u.Role}
}

func ptr(v uint) *uint { return &v }
