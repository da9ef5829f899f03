package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postapi/services"
	"github.com/cppla/postapi/utils"
)

// PostController handles post endpoints.
type PostController struct {
	posts   *services.PostService
	feed    *services.FeedAssembler
	deleter *services.CascadeDeleter
	log     *zap.Logger
}

// NewPostController creates a PostController.
func NewPostController(posts *services.PostService, feed *services.FeedAssembler, deleter *services.CascadeDeleter, log *zap.Logger) *PostController {
	return &PostController{posts: posts, feed: feed, deleter: deleter, log: log}
}

type contentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ListPosts returns one page of the feed.
func (pc *PostController) ListPosts(ctx *gin.Context) {
	page, size, ok := parsePagination(ctx)
	if !ok {
		return
	}
	views, err := pc.feed.ListPosts(ctx.Request.Context(), page, size)
	if err != nil {
		respondError(ctx, pc.log, err)
		return
	}
	utils.Success(ctx, views)
}

// GetPost returns one enriched post.
func (pc *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	view, err := pc.feed.GetPostView(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, pc.log, err)
		return
	}
	utils.Success(ctx, view)
}

// ListComments returns the comment thread of a post.
func (pc *PostController) ListComments(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	views, err := pc.feed.ListCommentsByPost(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, pc.log, err)
		return
	}
	utils.Success(ctx, views)
}

// CreatePost publishes a post for the caller.
func (pc *PostController) CreatePost(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	var req contentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	post, err := pc.posts.CreatePost(ctx.Request.Context(), identity, utils.SanitizeContent(req.Content))
	if err != nil {
		respondError(ctx, pc.log, err)
		return
	}
	utils.Created(ctx, post)
}

// UpdatePost edits a post.
func (pc *PostController) UpdatePost(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	post, err := pc.posts.UpdatePost(ctx.Request.Context(), identity, id, utils.SanitizeContent(req.Content))
	if err != nil {
		respondError(ctx, pc.log, err)
		return
	}
	utils.Success(ctx, post)
}

// DeletePost removes a post together with its comments.
func (pc *PostController) DeletePost(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	removed, err := pc.deleter.DeletePost(ctx.Request.Context(), id, identity)
	if err != nil {
		respondError(ctx, pc.log, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": removed})
}
