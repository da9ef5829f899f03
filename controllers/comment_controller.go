package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postapi/services"
	"github.com/cppla/postapi/utils"
)

// CommentController handles comment endpoints.
type CommentController struct {
	comments *services.CommentService
	deleter  *services.CascadeDeleter
	log      *zap.Logger
}

// NewCommentController creates a CommentController.
func NewCommentController(comments *services.CommentService, deleter *services.CascadeDeleter, log *zap.Logger) *CommentController {
	return &CommentController{comments: comments, deleter: deleter, log: log}
}

type createCommentRequest struct {
	Content         string `json:"content" binding:"required"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

// CreateComment adds a comment, or a reply when parent_comment_id is set.
func (cc *CommentController) CreateComment(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req createCommentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	comment, err := cc.comments.CreateComment(ctx.Request.Context(), identity, postID, req.ParentCommentID, utils.SanitizeContent(req.Content))
	if err != nil {
		respondError(ctx, cc.log, err)
		return
	}
	utils.Created(ctx, comment)
}

// UpdateComment edits a comment.
func (cc *CommentController) UpdateComment(ctx *gin.Context) {
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
	comment, err := cc.comments.UpdateComment(ctx.Request.Context(), identity, id, utils.SanitizeContent(req.Content))
	if err != nil {
		respondError(ctx, cc.log, err)
		return
	}
	utils.Success(ctx, comment)
}

// DeleteComment removes a comment and every reply below it.
func (cc *CommentController) DeleteComment(ctx *gin.Context) {
	identity, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	removed, err := cc.deleter.DeleteComment(ctx.Request.Context(), id, identity)
	if err != nil {
		respondError(ctx, cc.log, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": removed})
}
