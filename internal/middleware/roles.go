package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/response"
)

// RequireRole gates a route group to sessions whose role is in the
// permitted set. A missing session maps to the login redirect (401); a
// logged-in session with the wrong role maps to the unauthorized redirect
// (403). The decision is never cached — every navigation re-evaluates it.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrNotAuthenticated)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrRoleNotAllowed)
	}
}
