package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"govtwool/internal/jsonvalue"
	"govtwool/internal/rationale"
	"govtwool/internal/service"
)

// RationaleHandler arma y publica documentos de justificacion.
type RationaleHandler struct {
	logger *zap.Logger
	svc    *service.RationaleService
}

func NewRationaleHandler(logger *zap.Logger, svc *service.RationaleService) *RationaleHandler {
	return &RationaleHandler{logger: logger, svc: svc}
}

type rationaleRequest struct {
	Standard string           `json:"standard" binding:"required"`
	Provider string           `json:"provider"`
	Fields   rationale.Fields `json:"fields"`
}

func (h *RationaleHandler) bind(c *gin.Context) (rationaleRequest, rationale.Standard, bool) {
	var req rationaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid rationale request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return req, "", false
	}
	std, err := rationale.ParseStandard(req.Standard)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, "", false
	}
	return req, std, true
}

// Build maneja POST /api/rationale.
func (h *RationaleHandler) Build(c *gin.Context) {
	req, std, ok := h.bind(c)
	if !ok {
		return
	}
	draft, err := h.svc.Draft(std, req.Fields)
	if err != nil {
		writeRationaleError(c, err)
		return
	}
	// document debe servirse con los mismos bytes que hashea anchor.data_hash.
	body, err := jsonvalue.Marshal(draft)
	if err != nil {
		h.logger.Error("encode rationale draft", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode rationale"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Publish maneja POST /api/rationale/publish.
func (h *RationaleHandler) Publish(c *gin.Context) {
	req, std, ok := h.bind(c)
	if !ok {
		return
	}
	pub, err := h.svc.Publish(c.Request.Context(), c.ClientIP(), std, req.Fields, req.Provider)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPublishRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many publish requests"})
		case errors.Is(err, rationale.ErrSinkDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rationale storage not configured"})
		default:
			writeRationaleError(c, err)
		}
		return
	}
	c.JSON(http.StatusCreated, pub)
}

func writeRationaleError(c *gin.Context, err error) {
	var ve *rationale.ValidationError
	if errors.As(err, &ve) {
		body := gin.H{"error": ve.Error(), "field": ve.Field}
		if ve.Limit > 0 {
			body["limit"] = ve.Limit
			body["actual"] = ve.Actual
		}
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	if errors.Is(err, rationale.ErrUnknownStandard) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "could not publish rationale"})
}
