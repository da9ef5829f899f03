package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repository"
)

func newUserService(f *fixture, cache FeedCache) *UserService {
	tokens := auth.NewTokenService("test-secret", "postapi", "clients", time.Hour)
	return NewUserService(f.store, tokens, cache, []string{"Root"}, zap.NewNop())
}

func signup(t *testing.T, s *UserService, f *fixture, username string) (string, models.UserLimited) {
	t.Helper()
	token, user, err := s.Signup(f.ctx, SignupInput{Username: username, Email: username + "@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	return token, user
}

func TestSignup(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f, nil)

	token, user := signup(t, s, f, "Alice")
	assert.Equal(t, "alice", user.Username)

	identity, err := auth.Resolve("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{SubjectID: user.ID, Role: models.RoleUser}, identity)

	stored, err := s.GetUserByUsername(f.ctx, "ALICE")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", stored.PasswordHash)
	assert.Equal(t, "alice@example.com", stored.Email)

	rootToken, _ := signup(t, s, f, "root")
	rootIdentity, err := auth.Resolve(rootToken)
	require.NoError(t, err)
	assert.True(t, rootIdentity.IsAdmin())
}

func TestSignup_Rejections(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f, nil)
	signup(t, s, f, "alice")

	cases := []struct {
		name string
		in   SignupInput
		want error
	}{
		{"duplicate username", SignupInput{Username: "ALICE", Email: "other@example.com", Password: "secret-pass"}, ErrConflict},
		{"duplicate email", SignupInput{Username: "bob", Email: "Alice@Example.com", Password: "secret-pass"}, ErrConflict},
		{"short password", SignupInput{Username: "bob", Email: "bob@example.com", Password: "123"}, ErrInvalidInput},
		{"missing username", SignupInput{Email: "bob@example.com", Password: "secret-pass"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.Signup(f.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// staleStore answers existence checks as if a concurrent signup had not
// committed yet, so only the unique index can catch the duplicate.
type staleStore struct {
	repository.Store
}

func (s staleStore) Users() repository.UserRepository {
	return staleUsers{UserRepository: s.Store.Users()}
}

type staleUsers struct {
	repository.UserRepository
}

func (staleUsers) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }
func (staleUsers) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }

func TestSignup_ConcurrentDuplicateIsConflict(t *testing.T) {
	f := newFixture(t)
	signup(t, newUserService(f, nil), f, "alice")

	tokens := auth.NewTokenService("test-secret", "postapi", "clients", time.Hour)
	s := NewUserService(staleStore{Store: f.store}, tokens, nil, nil, zap.NewNop())

	_, _, err := s.Signup(f.ctx, SignupInput{Username: "alice", Email: "second@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrStoreFailure)

	_, _, err = s.Signup(f.ctx, SignupInput{Username: "bob", Email: "alice@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateUser_ConcurrentEmailClaimIsConflict(t *testing.T) {
	f := newFixture(t)
	base := newUserService(f, nil)
	signup(t, base, f, "alice")
	_, bob := signup(t, base, f, "bob")

	tokens := auth.NewTokenService("test-secret", "postapi", "clients", time.Hour)
	s := NewUserService(staleStore{Store: f.store}, tokens, nil, nil, zap.NewNop())

	_, err := s.UpdateUser(f.ctx, auth.Identity{SubjectID: bob.ID, Role: models.RoleUser}, bob.ID, UserPatch{Email: strPtr("alice@example.com")})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f, nil)
	_, created := signup(t, s, f, "alice")

	token, user, err := s.Login(f.ctx, "Alice", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, created, user)
	assert.NotEmpty(t, token)

	stored, err := s.GetUserByID(f.ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	_, _, err = s.Login(f.ctx, "alice", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = s.Login(f.ctx, "nobody", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLookups(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f, nil)
	signup(t, s, f, "alice")
	signup(t, s, f, "bob")

	users, err := s.ListUsers(f.ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)

	exists, err := s.UsernameExists(f.ctx, "BOB")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.EmailExists(f.ctx, "carol@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.GetUserByID(f.ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.GetUserByUsername(f.ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func strPtr(s string) *string { return &s }

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	cache := &mockCache{}
	cache.On("InvalidatePrefix", mock.Anything, FeedCachePrefix)
	s := newUserService(f, cache)
	_, alice := signup(t, s, f, "alice")
	_, bob := signup(t, s, f, "bob")
	aliceID := auth.Identity{SubjectID: alice.ID, Role: models.RoleUser}
	admin := auth.Identity{SubjectID: 999, Role: models.RoleAdmin}

	updated, err := s.UpdateUser(f.ctx, aliceID, alice.ID, UserPatch{Bio: strPtr("hi"), Password: strPtr("new-secret")})
	require.NoError(t, err)
	assert.Equal(t, "hi", updated.Bio)
	_, _, err = s.Login(f.ctx, "alice", "new-secret")
	assert.NoError(t, err)
	cache.AssertCalled(t, "InvalidatePrefix", mock.Anything, FeedCachePrefix)

	_, err = s.UpdateUser(f.ctx, aliceID, bob.ID, UserPatch{Bio: strPtr("hacked")})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.UpdateUser(f.ctx, aliceID, alice.ID, UserPatch{Role: strPtr(models.RoleAdmin)})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.UpdateUser(f.ctx, aliceID, alice.ID, UserPatch{Email: strPtr("BOB@example.com")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.UpdateUser(f.ctx, aliceID, alice.ID, UserPatch{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	promoted, err := s.UpdateUser(f.ctx, admin, bob.ID, UserPatch{Role: strPtr(models.RoleAdmin), FirstName: strPtr("Bob")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)
	assert.Equal(t, "Bob", promoted.FirstName)

	_, err = s.UpdateUser(f.ctx, admin, bob.ID, UserPatch{Role: strPtr("superuser")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.UpdateUser(f.ctx, admin, 404, UserPatch{Bio: strPtr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser_LeavesContentWithPlaceholderAuthor(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f, nil)
	_, alice := signup(t, s, f, "alice")
	_, bob := signup(t, s, f, "bob")
	post := f.post(t, alice.ID, "still here", epoch)

	removed, err := s.DeleteUser(f.ctx, auth.Identity{SubjectID: bob.ID, Role: models.RoleUser}, alice.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, removed)

	removed, err = s.DeleteUser(f.ctx, auth.Identity{SubjectID: alice.ID, Role: models.RoleUser}, alice.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	view, err := NewFeedAssembler(f.store, nil, zap.NewNop()).GetPostView(f.ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "", view.Author)
	assert.Equal(t, models.MissingProfilePicture, view.ProfilePicture)

	_, err = s.DeleteUser(f.ctx, auth.Identity{SubjectID: alice.ID, Role: models.RoleUser}, alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
