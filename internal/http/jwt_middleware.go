package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"govtwool/internal/service"
)

const adminClaimsKey = "admin_claims"

// AdminAuthMiddleware exige un token de administracion Bearer valido.
func AdminAuthMiddleware(tokens *service.AdminTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokens.Enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin api not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

// GetAdminClaims obtiene los claims desde el contexto.
func GetAdminClaims(c *gin.Context) (service.AdminClaims, bool) {
	val, ok := c.Get(adminClaimsKey)
	if !ok {
		return service.AdminClaims{}, false
	}
	claims, ok := val.(service.AdminClaims)
	return claims, ok
}
