package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/cppla/postapi/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("bad header: %w", services.ErrInvalidCredential), http.StatusUnauthorized},
		{services.ErrUnauthorized, http.StatusForbidden},
		{services.ErrPostNotFound, http.StatusNotFound},
		{services.ErrCommentNotFound, http.StatusNotFound},
		{services.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: page", services.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", services.ErrStoreFailure, errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		respondError(ctx, zap.NewNop(), tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	respondError(ctx, zap.NewNop(), fmt.Errorf("%w: secret dsn", services.ErrStoreFailure))
	assert.NotContains(t, w.Body.String(), "secret dsn")
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query      string
		page, size int
		ok         bool
	}{
		{"", 1, 10, true},
		{"page=3&pageSize=25", 3, 25, true},
		{"pageSize=1000", 1, 100, true},
		{"page=0", 0, 0, false},
		{"pageSize=-1", 0, 0, false},
		{"page=x", 0, 0, false},
		{"page=4611686018427387905&pageSize=10", 0, 0, false},
		{"page=9223372036854775807", 0, 0, false},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)

		page, size, ok := parsePagination(ctx)
		assert.Equal(t, tc.ok, ok, tc.query)
		assert.Equal(t, tc.page, page, tc.query)
		assert.Equal(t, tc.size, size, tc.query)
		if !ok {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}
