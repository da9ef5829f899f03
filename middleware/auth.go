package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postapi/auth"
	"github.com/cppla/postapi/utils"
)

// ContextIdentityKey is the key used to store the caller identity in Gin context.
const ContextIdentityKey = "identity"

// AuthRequired verifies the bearer token and stores the resolved caller
// identity for the handlers that follow.
func AuthRequired(tokens *auth.TokenService, log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], auth.BearerScheme) {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if _, err := tokens.Verify(tokenString); err != nil {
			log.Debug("token rejected", zap.String("ip", ctx.ClientIP()), zap.Error(err))
			utils.Error(ctx, http.StatusUnauthorized, 40104, "invalid token")
			ctx.Abort()
			return
		}

		identity, err := auth.Resolve(authHeader)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid credential")
			ctx.Abort()
			return
		}

		ctx.Set(ContextIdentityKey, identity)
		ctx.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(ctx *gin.Context) (auth.Identity, bool) {
	v, ok := ctx.Get(ContextIdentityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
