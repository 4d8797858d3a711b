package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"govtwool/internal/service"
)

const requestIDKey = "request_id"

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	healthH *HealthHandler,
	dirH *DirectoryHandler,
	ratH *RationaleHandler,
	adminH *AdminHandler,
	tokens *service.AdminTokenService,
) *gin.Engine {
	r := gin.New()

	r.Use(requestIDMiddleware(), zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", healthH.Health)

	api := r.Group("/api")
	api.GET("/dreps", dirH.ListDReps)
	api.GET("/dreps/stats", dirH.DRepStats)
	api.GET("/dreps/:id", dirH.DRep)
	api.GET("/dreps/:id/profile", dirH.DRepProfile)
	api.GET("/actions", dirH.ListActions)
	api.GET("/actions/:id", dirH.Action)
	api.GET("/actions/:id/profile", dirH.ActionProfile)
	api.POST("/rationale", ratH.Build)
	api.POST("/rationale/publish", ratH.Publish)

	admin := r.Group("/admin", AdminAuthMiddleware(tokens))
	admin.DELETE("/cache", adminH.ClearCache)

	return r
}

// requestIDMiddleware reutiliza X-Request-ID o genera uno.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
