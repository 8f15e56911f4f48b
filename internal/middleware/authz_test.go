package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequireElevated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		role string
		want int
	}{
		{"owner", http.StatusOK},
		{"admin", http.StatusOK},
		{"member", http.StatusForbidden},
		{"viewer", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) {
				if tc.role != "" {
					c.Set(CtxRole, tc.role)
				}
				c.Next()
			}, RequireElevated(), func(c *gin.Context) { c.Status(http.StatusOK) })

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
