package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"govtwool/internal/cache"
	"govtwool/internal/service"
)

// HealthHandler reporta el estado de los caches.
type HealthHandler struct {
	network  string
	rawCache *cache.Cache
	dir      *service.Directory
}

func NewHealthHandler(network string, rawCache *cache.Cache, dir *service.Directory) *HealthHandler {
	return &HealthHandler{network: network, rawCache: rawCache, dir: dir}
}

// Health maneja GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"network":  h.network,
		"cache":    h.rawCache.Stats(c.Request.Context()),
		"profiles": h.dir.Profiles().Stats(),
	})
}

// AdminHandler agrupa operaciones protegidas.
type AdminHandler struct {
	logger   *zap.Logger
	rawCache *cache.Cache
	dir      *service.Directory
}

func NewAdminHandler(logger *zap.Logger, rawCache *cache.Cache, dir *service.Directory) *AdminHandler {
	return &AdminHandler{logger: logger, rawCache: rawCache, dir: dir}
}

// ClearCache maneja DELETE /admin/cache: vacia respuestas crudas y perfiles.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.rawCache.Clear(c.Request.Context()); err != nil {
		h.logger.Error("clear raw cache failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear cache"})
		return
	}
	h.dir.Invalidate()

	subject := ""
	if claims, ok := GetAdminClaims(c); ok {
		subject = claims.Subject
	}
	h.logger.Info("caches cleared", zap.String("by", subject))
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
