package middlewares

import (
	"strings"

	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/gin-gonic/gin"
)

const (
	RefreshTokenHeader = "X-Refresh-Token"
	AccessTokenHeader  = "X-Access-Token"
)

// AuthMiddleware copies the bearer and refresh tokens into the request
// context. Validation happens in the store when an operation needs a session.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, _ := utils.WithRefreshedTokenHolder(c.Request.Context())

		if token := bearerToken(c.Request.Header.Get("Authorization")); token != "" {
			ctx = utils.SetTokenInContext(ctx, token)
		}
		if refresh := strings.TrimSpace(c.Request.Header.Get(RefreshTokenHeader)); refresh != "" {
			ctx = utils.SetRefreshTokenInContext(ctx, refresh)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(auth string) string {
	const bearer = "Bearer "
	if len(auth) < len(bearer) || !strings.EqualFold(auth[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(auth[len(bearer):])
}

// RefreshedToken returns the access token minted while serving the request, if any.
func RefreshedToken(c *gin.Context) string {
	holder, ok := c.Request.Context().Value(utils.ContextKeyRefreshedToken).(*string)
	if !ok || holder == nil {
		return ""
	}
	return *holder
}
