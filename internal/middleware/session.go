package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizgate/quizgate/internal/response"
	"github.com/quizgate/quizgate/internal/service"
)

// CheckPersistedSession validates the JWT's JTI against the session entry
// in Redis. A stale JTI means the user logged out or logged in elsewhere;
// the token is rejected even though its signature is still valid.
func CheckPersistedSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrNotAuthenticated)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
