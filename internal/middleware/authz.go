package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadflow/internal/authz"
)

// RequireWorkspaceAccess rejects requests whose :workspace_id differs from the token's workspace.
func RequireWorkspaceAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenWS := c.GetString(CtxWorkspaceID)
		if tokenWS == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no workspace in context"})
			return
		}
		if c.Param("workspace_id") != tokenWS {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no access to this workspace"})
			return
		}
		c.Next()
	}
}

// RequireElevated lets only roles that may change the pipeline itself through.
func RequireElevated() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		if !authz.IsElevated(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// ReadOnlyGuard blocks unsafe methods for viewers.
func ReadOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authz.IsReadOnly(c.GetString(CtxRole)) {
			switch c.Request.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only role"})
				return
			}
		}
		c.Next()
	}
}
