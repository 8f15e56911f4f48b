package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"leadflow/internal/authz"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID      = "user_id"
	CtxWorkspaceID = "workspace_id"
	CtxRole        = "role"
)

type Claims struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// публичные эндпоинты без токена
func isPublicPath(path string) bool {
	return strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz")
}

// SignToken issues an HS256 token for the given claims.
func SignToken(secret []byte, userID, workspaceID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
			// только HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithLeeway(2*time.Minute), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if claims.UserID == "" || claims.WorkspaceID == "" || !authz.IsKnown(claims.Role) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Incomplete token claims"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxWorkspaceID, claims.WorkspaceID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}
