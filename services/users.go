package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repository"
	"github.com/cppla/postapi/utils"
)

// UserService manages accounts and issues tokens at signup and login.
type UserService struct {
	store  repository.Store
	tokens *auth.TokenService
	cache  FeedCache
	admins []string
	log    *zap.Logger
}

// NewUserService creates a UserService. Usernames listed in adminUsernames
// receive the admin role when they sign up. cache may be nil.
func NewUserService(store repository.Store, tokens *auth.TokenService, cache FeedCache, adminUsernames []string, log *zap.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, cache: cache, admins: adminUsernames, log: log}
}

// SignupInput carries the fields accepted at signup.
type SignupInput struct {
	Username       string
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Gender         string
	Birthday       *time.Time
	ProfilePicture string
	Bio            string
	Status         string
}

// UserPatch carries the fields a user update may change. Nil fields are kept.
type UserPatch struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Password       *string
	Gender         *string
	Birthday       *time.Time
	ProfilePicture *string
	Bio            *string
	Status         *string
	Role           *string
}

func (p UserPatch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Password == nil &&
		p.Gender == nil && p.Birthday == nil && p.ProfilePicture == nil && p.Bio == nil &&
		p.Status == nil && p.Role == nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *UserService) roleFor(username string) string {
	for _, admin := range s.admins {
		if strings.EqualFold(strings.TrimSpace(admin), username) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}

// Signup creates an account and returns a token with the public user subset.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (string, models.UserLimited, error) {
	username := normalize(in.Username)
	email := normalize(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return "", models.UserLimited{}, invalidInput("username, email and password are required")
	}

	users := s.store.Users()
	if exists, err := users.ExistsByUsername(ctx, username); err != nil {
		return "", models.UserLimited{}, storeFailure(err)
	} else if exists {
		return "", models.UserLimited{}, ErrConflict
	}
	if exists, err := users.ExistsByEmail(ctx, email); err != nil {
		return "", models.UserLimited{}, storeFailure(err)
	} else if exists {
		return "", models.UserLimited{}, ErrConflict
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", models.UserLimited{}, invalidInput(err.Error())
	}

	user := models.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Role:           s.roleFor(username),
		Gender:         in.Gender,
		Birthday:       in.Birthday,
		ProfilePicture: in.ProfilePicture,
		Bio:            in.Bio,
		Status:         in.Status,
	}
	if err := users.Create(ctx, &user); err != nil {
		if repository.IsDuplicateKey(err) {
			return "", models.UserLimited{}, ErrConflict
		}
		return "", models.UserLimited{}, storeFailure(err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", models.UserLimited{}, err
	}
	s.log.Info("user signed up", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return token, user.Limited(), nil
}

// Login verifies the password and returns a fresh token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, models.UserLimited, error) {
	user, err := s.store.Users().FindByUsername(ctx, normalize(username))
	if err != nil {
		return "", models.UserLimited{}, lookupFailure(err, invalidInput("invalid username or password"))
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return "", models.UserLimited{}, invalidInput("invalid username or password")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.store.Users().Update(ctx, user); err != nil {
		s.log.Warn("record last login failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return "", models.UserLimited{}, err
	}
	return token, user.Limited(), nil
}

// GetUserByID returns the user with the given id.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure(err, ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername returns the user with the given username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, normalize(username))
	if err != nil {
		return nil, lookupFailure(err, ErrUserNotFound)
	}
	return user, nil
}

// ListUsers returns every user ordered by id.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	return users, nil
}

// UsernameExists reports whether the username is taken.
func (s *UserService) UsernameExists(ctx context.Context, username string) (bool, error) {
	exists, err := s.store.Users().ExistsByUsername(ctx, normalize(username))
	if err != nil {
		return false, storeFailure(err)
	}
	return exists, nil
}

// EmailExists reports whether the email is taken.
func (s *UserService) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.store.Users().ExistsByEmail(ctx, normalize(email))
	if err != nil {
		return false, storeFailure(err)
	}
	return exists, nil
}

// UpdateUser applies the patch when the actor is the target user or an admin.
// Only admins may change roles.
func (s *UserService) UpdateUser(ctx context.Context, actor auth.Identity, targetID uint, patch UserPatch) (*models.User, error) {
	if patch.empty() {
		return nil, invalidInput("no field changes")
	}

	user, err := s.store.Users().FindByID(ctx, targetID)
	if err != nil {
		return nil, lookupFailure(err, ErrUserNotFound)
	}
	if !auth.Authorize(actor, user.ID) {
		return nil, ErrUnauthorized
	}

	if patch.Role != nil {
		if !actor.IsAdmin() {
			return nil, ErrUnauthorized
		}
		if *patch.Role != models.RoleAdmin && *patch.Role != models.RoleUser {
			return nil, invalidInput("role must be admin or user")
		}
		user.Role = *patch.Role
	}
	if patch.Email != nil {
		email := normalize(*patch.Email)
		if email == "" {
			return nil, invalidInput("email cannot be empty")
		}
		if email != user.Email {
			exists, err := s.store.Users().ExistsByEmail(ctx, email)
			if err != nil {
				return nil, storeFailure(err)
			}
			if exists {
				return nil, ErrConflict
			}
			user.Email = email
		}
	}
	if patch.Password != nil {
		hash, err := utils.HashPassword(*patch.Password)
		if err != nil {
			return nil, invalidInput(err.Error())
		}
		user.PasswordHash = hash
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Gender != nil {
		user.Gender = *patch.Gender
	}
	if patch.Birthday != nil {
		user.Birthday = patch.Birthday
	}
	if patch.ProfilePicture != nil {
		user.ProfilePicture = *patch.ProfilePicture
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, storeFailure(err)
	}
	invalidateFeed(ctx, s.cache)
	s.log.Info("user updated", zap.Uint("user_id", user.ID), zap.Uint("actor_id", actor.SubjectID))
	return user, nil
}

// DeleteUser removes the user row when the actor is that user or an admin.
// Posts and comments of the user stay; feeds render them with placeholder authors.
func (s *UserService) DeleteUser(ctx context.Context, actor auth.Identity, targetID uint) (bool, error) {
	user, err := s.store.Users().FindByID(ctx, targetID)
	if err != nil {
		return false, lookupFailure(err, ErrUserNotFound)
	}
	if !auth.Authorize(actor, user.ID) {
		return false, ErrUnauthorized
	}

	removed, err := s.store.Users().Delete(ctx, user.ID)
	if err != nil {
		return false, storeFailure(err)
	}
	if removed == 0 {
		return false, nil
	}
	invalidateFeed(ctx, s.cache)
	s.log.Info("user deleted", zap.Uint("user_id", user.ID), zap.Uint("actor_id", actor.SubjectID))
	return true, nil
}
