package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const userContextKey contextKey = "storeitRequester"

// AuthMiddleware validates bearer tokens and injects the authenticated requester.
func AuthMiddleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := service.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		SetRequester(c, claims.Requester)
		c.Next()
	}
}

// SetRequester stores the requester on the gin context.
func SetRequester(c *gin.Context, r Requester) {
	c.Set(string(userContextKey), r)
}

// CurrentUser extracts the authenticated requester from the context.
// The zero Requester is returned when none was resolved.
func CurrentUser(c *gin.Context) Requester {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return Requester{}
	}
	r, _ := value.(Requester)
	return r
}

// RequireUser fetches the requester and reports whether one was resolved.
func RequireUser(c *gin.Context) (Requester, bool) {
	r := CurrentUser(c)
	return r, !r.IsZero()
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
