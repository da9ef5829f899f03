package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/config"
	"github.com/cppla/postapi/controllers"
	"github.com/cppla/postapi/middleware"
	"github.com/cppla/postapi/repository"
	"github.com/cppla/postapi/services"
	"github.com/cppla/postapi/utils"
)

// Deps carries what the router needs to build its controllers.
type Deps struct {
	Config config.AppConfig
	DB     *gorm.DB
	// Redis may be nil; caching and signup throttling are then skipped.
	Redis  *redis.Client
	Logger *zap.Logger
	// AccessLogger receives per-request lines. Logger is used when nil.
	AccessLogger *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Logger
	accessLog := deps.AccessLogger
	if accessLog == nil {
		accessLog = log
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	store := repository.NewStore(deps.DB)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())

	var cache services.FeedCache
	if deps.Redis != nil {
		cache = utils.NewRedisCache(deps.Redis, cfg.CacheTTL(), log)
	}

	userService := services.NewUserService(store, tokens, cache, cfg.AdminUsernames, log)
	postService := services.NewPostService(store, cache, log)
	commentService := services.NewCommentService(store, log)
	feed := services.NewFeedAssembler(store, cache, log)
	deleter := services.NewCascadeDeleter(store, cache, log)

	userController := controllers.NewUserController(userService, feed, utils.NewSignupGuard(deps.Redis, cfg.RegisterMaxPerIPPerDay, log), log)
	postController := controllers.NewPostController(postService, feed, deleter, log)
	commentController := controllers.NewCommentController(commentService, deleter, log)

	requireAuth := middleware.AuthRequired(tokens, log)
	limit := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)

	api := r.Group("/api/v1")

	users := api.Group("/users")
	users.POST("/signup", limit, userController.Signup)
	users.POST("/login", limit, userController.Login)
	users.GET("", userController.ListUsers)
	users.GET("/id/:id", requireAuth, userController.GetUserByID)
	users.GET("/username/:username", userController.GetUserByUsername)
	users.GET("/:username/posts", userController.ListPostsByUsername)
	users.GET("/:username/comments", userController.ListCommentsByUsername)
	users.POST("/validator/username/:username", limit, userController.ValidateUsername)
	users.POST("/validator/email/:email", limit, userController.ValidateEmail)
	users.PATCH("/:id", requireAuth, limit, userController.UpdateUser)
	users.DELETE("/:id", requireAuth, limit, userController.DeleteUser)

	posts := api.Group("/posts")
	posts.GET("", postController.ListPosts)
	posts.GET("/:id", postController.GetPost)
	posts.GET("/:id/comments", postController.ListComments)
	posts.POST("", requireAuth, limit, postController.CreatePost)
	posts.PATCH("/:id", requireAuth, limit, postController.UpdatePost)
	posts.DELETE("/:id", requireAuth, limit, postController.DeletePost)
	posts.POST("/:id/comments", requireAuth, limit, commentController.CreateComment)

	comments := api.Group("/comments")
	comments.PATCH("/:id", requireAuth, limit, commentController.UpdateComment)
	comments.DELETE("/:id", requireAuth, limit, commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
