package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/middleware"
	"github.com/cppla/postapi/services"
	"github.com/cppla/postapi/utils"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// respondError maps service errors onto HTTP statuses and envelope codes.
func respondError(ctx *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredential):
		utils.Error(ctx, http.StatusUnauthorized, 40100, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(ctx, http.StatusForbidden, 40300, "not allowed to modify this resource")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40900, "username or email already exists")
	case errors.Is(err, services.ErrInvalidInput):
		utils.Error(ctx, http.StatusBadRequest, 40000, err.Error())
	default:
		log.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads page and pageSize, defaulting to 1 and 10 and capping
// the size at 100. Non numeric values are rejected.
func parsePagination(ctx *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "page must be a positive integer")
		return 0, 0, false
	}
	size, err := strconv.Atoi(ctx.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40003, "pageSize must be a positive integer")
		return 0, 0, false
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page-1 > math.MaxInt/size {
		utils.Error(ctx, http.StatusBadRequest, 40002, "page is out of range")
		return 0, 0, false
	}
	return page, size, true
}

func currentIdentity(ctx *gin.Context) (auth.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "authentication required")
	}
	return identity, ok
}

func bindJSON(ctx *gin.Context, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request body")
		return false
	}
	return true
}
