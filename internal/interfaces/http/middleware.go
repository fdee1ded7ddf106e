package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

const userContextKey = "currentUser"

// authMiddleware verifies the bearer token and loads the acting user
// onto the request context. Every /api route past login runs behind it.
func authMiddleware(tokens port.TokenIssuer, users port.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			respondError(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		userID, _, err := tokens.Verify(tokenString)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		// The role claim is only a hint; the stored user is authoritative.
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "unknown user")
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireAdmin rejects non-admin actors before the handler runs.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin() {
			respondError(c, http.StatusForbidden, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireApprover rejects actors whose role cannot act on approvals.
func requireApprover() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).CanApprove() {
			respondError(c, http.StatusForbidden, "manager or admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user set by authMiddleware.
func currentUser(c *gin.Context) *entity.User {
	return c.MustGet(userContextKey).(*entity.User)
}
