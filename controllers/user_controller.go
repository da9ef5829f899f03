package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/services"
	"github.com/cppla/postapi/utils"
)

// UserController handles account endpoints.
type UserController struct {
	users *services.UserService
	feed  *services.FeedAssembler
	guard *utils.SignupGuard
	log   *zap.Logger
}

// NewUserController creates a UserController.
func NewUserController(users *services.UserService, feed *services.FeedAssembler, guard *utils.SignupGuard, log *zap.Logger) *UserController {
	return &UserController{users: users, feed: feed, guard: guard, log: log}
}

type signupRequest struct {
	Username       string     `json:"username" binding:"required,min=3,max=32,alphanum"`
	Email          string     `json:"email" binding:"required,email"`
	Password       string     `json:"password" binding:"required"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Gender         string     `json:"gender"`
	Birthday       *time.Time `json:"birthday"`
	ProfilePicture string     `json:"profile_picture"`
	Bio            string     `json:"bio"`
	Status         string     `json:"status"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateUserRequest struct {
	FirstName      *string    `json:"first_name"`
	LastName       *string    `json:"last_name"`
	Email          *string    `json:"email" binding:"omitempty,email"`
	Password       *string    `json:"password"`
	Gender         *string    `json:"gender"`
	Birthday       *time.Time `json:"birthday"`
	ProfilePicture *string    `json:"profile_picture"`
	Bio            *string    `json:"bio"`
	Status         *string    `json:"status"`
	Role           *string    `json:"role"`
}

type authResponse struct {
	Token string             `json:"token"`
	User  models.UserLimited `json:"user"`
}

// publicProfile is what anonymous callers see of a user.
type publicProfile struct {
	ID             uint       `json:"id"`
	Username       string     `json:"username"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Gender         string     `json:"gender,omitempty"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	ProfilePicture string     `json:"profile_picture"`
	Bio            string     `json:"bio,omitempty"`
	Status         string     `json:"status,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toPublicProfile(u models.User) publicProfile {
	return publicProfile{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Gender:         u.Gender,
		Birthday:       u.Birthday,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Status:         u.Status,
		CreatedAt:      u.CreatedAt,
	}
}

func sanitizedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := utils.SanitizeText(*s)
	return &v
}

// Signup creates an account and returns a token.
func (uc *UserController) Signup(ctx *gin.Context) {
	var req signupRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ip := ctx.ClientIP()
	if !uc.guard.Allow(ctx.Request.Context(), ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "too many signups from this address today")
		return
	}

	token, user, err := uc.users.Signup(ctx.Request.Context(), services.SignupInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      utils.SanitizeText(req.FirstName),
		LastName:       utils.SanitizeText(req.LastName),
		Gender:         utils.SanitizeText(req.Gender),
		Birthday:       req.Birthday,
		ProfilePicture: utils.SanitizeText(req.ProfilePicture),
		Bio:            utils.SanitizeText(req.Bio),
		Status:         utils.SanitizeText(req.Status),
	})
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	uc.guard.Record(ctx.Request.Context(), ip)
	utils.Created(ctx, authResponse{Token: token, User: user})
}

// Login exchanges credentials for a token.
func (uc *UserController) Login(ctx *gin.Context) {
	var req loginRequest
	if !bindJSON(ctx, &req) {
		return
	}
	token, user, err := uc.users.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, authResponse{Token: token, User: user})
}

// ListUsers returns every public profile.
func (uc *UserController) ListUsers(ctx *gin.Context) {
	users, err := uc.users.ListUsers(ctx.Request.Context())
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	profiles := make([]publicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, toPublicProfile(u))
	}
	utils.Success(ctx, profiles)
}

// GetUserByID returns the full user record to the user or an admin.
func (uc *UserController) GetUserByID(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	user, err := uc.users.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	if identity.IsAdmin() || identity.SubjectID == user.ID {
		utils.Success(ctx, user)
		return
	}
	utils.Success(ctx, toPublicProfile(*user))
}

// GetUserByUsername returns a public profile.
func (uc *UserController) GetUserByUsername(ctx *gin.Context) {
	user, err := uc.users.GetUserByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, toPublicProfile(*user))
}

// ListPostsByUsername returns every post of a user, most recent first.
func (uc *UserController) ListPostsByUsername(ctx *gin.Context) {
	views, err := uc.feed.ListPostsByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, views)
}

// ListCommentsByUsername returns one page of a user's comments.
func (uc *UserController) ListCommentsByUsername(ctx *gin.Context) {
	page, size, ok := parsePagination(ctx)
	if !ok {
		return
	}
	views, err := uc.feed.ListCommentsByUsername(ctx.Request.Context(), page, size, ctx.Param("username"))
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, views)
}

// ValidateUsername reports whether a username is taken.
func (uc *UserController) ValidateUsername(ctx *gin.Context) {
	exists, err := uc.users.UsernameExists(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, gin.H{"exists": exists})
}

// ValidateEmail reports whether an email is taken.
func (uc *UserController) ValidateEmail(ctx *gin.Context) {
	exists, err := uc.users.EmailExists(ctx.Request.Context(), ctx.Param("email"))
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, gin.H{"exists": exists})
}

// UpdateUser patches a user.
func (uc *UserController) UpdateUser(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := uc.users.UpdateUser(ctx.Request.Context(), identity, id, services.UserPatch{
		FirstName:      sanitizedPtr(req.FirstName),
		LastName:       sanitizedPtr(req.LastName),
		Email:          req.Email,
		Password:       req.Password,
		Gender:         sanitizedPtr(req.Gender),
		Birthday:       req.Birthday,
		ProfilePicture: sanitizedPtr(req.ProfilePicture),
		Bio:            sanitizedPtr(req.Bio),
		Status:         sanitizedPtr(req.Status),
		Role:           req.Role,
	})
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, user)
}

// DeleteUser removes a user.
func (uc *UserController) DeleteUser(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	removed, err := uc.users.DeleteUser(ctx.Request.Context(), identity, id)
	if err != nil {
		respondError(ctx, uc.log, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": removed})
}
