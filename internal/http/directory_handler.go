package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"govtwool/internal/domain"
	"govtwool/internal/enrichment"
	"govtwool/internal/service"
)

// DirectoryHandler expone los listados canonicalizados.
type DirectoryHandler struct {
	logger *zap.Logger
	dir    *service.Directory
}

func NewDirectoryHandler(logger *zap.Logger, dir *service.Directory) *DirectoryHandler {
	return &DirectoryHandler{logger: logger, dir: dir}
}

type enrichmentStatus struct {
	Pending bool                `json:"pending"`
	Summary *enrichment.Summary `json:"summary,omitempty"`
}

type listResponse struct {
	Entities   []domain.Entity  `json:"entities"`
	HasMore    bool             `json:"has_more"`
	Total      *int64           `json:"total,omitempty"`
	Enrichment enrichmentStatus `json:"enrichment"`
}

// ListDReps maneja GET /api/dreps.
func (h *DirectoryHandler) ListDReps(c *gin.Context) {
	h.list(c, domain.KindDRep)
}

// ListActions maneja GET /api/actions.
func (h *DirectoryHandler) ListActions(c *gin.Context) {
	h.list(c, domain.KindAction)
}

func (h *DirectoryHandler) list(c *gin.Context, kind domain.EntityKind) {
	q, err := parsePageQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.dir.Page(c.Request.Context(), kind, q)
	if err != nil {
		h.logger.Error("list entities failed", zap.String("kind", string(kind)), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load entities"})
		return
	}

	entities := res.Page.Entities
	status := enrichmentStatus{Pending: true}
	if c.Query("enrich") == "wait" {
		if sum, err := res.Enrichment.Wait(c.Request.Context()); err == nil {
			entities = h.dir.Reapply(entities)
			status = enrichmentStatus{Summary: &sum}
		}
	} else {
		select {
		case <-res.Enrichment.Done():
			sum := res.Enrichment.Summary()
			status = enrichmentStatus{Summary: &sum}
		default:
		}
	}

	if entities == nil {
		entities = []domain.Entity{}
	}
	c.JSON(http.StatusOK, listResponse{
		Entities:   entities,
		HasMore:    res.Page.HasMore,
		Total:      res.Page.Total,
		Enrichment: status,
	})
}

// DRepProfile maneja GET /api/dreps/:id/profile.
func (h *DirectoryHandler) DRepProfile(c *gin.Context) {
	h.profile(c, domain.KindDRep)
}

// ActionProfile maneja GET /api/actions/:id/profile.
func (h *DirectoryHandler) ActionProfile(c *gin.Context) {
	h.profile(c, domain.KindAction)
}

func (h *DirectoryHandler) profile(c *gin.Context, kind domain.EntityKind) {
	id := strings.TrimSpace(c.Param("id"))
	p, state, err := h.dir.Profile(c.Request.Context(), kind, id)
	if err != nil {
		if errors.Is(err, service.ErrNoAnchor) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entity not seen in any listing"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          id,
		"state":       state.String(),
		"has_profile": p.IsPresent(),
		"profile":     p,
	})
}

// DRep maneja GET /api/dreps/:id.
func (h *DirectoryHandler) DRep(c *gin.Context) {
	h.entity(c, domain.KindDRep)
}

// Action maneja GET /api/actions/:id.
func (h *DirectoryHandler) Action(c *gin.Context) {
	h.entity(c, domain.KindAction)
}

func (h *DirectoryHandler) entity(c *gin.Context, kind domain.EntityKind) {
	e, err := h.dir.Entity(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotSeen) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("resolve entity failed", zap.String("kind", string(kind)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve entity"})
		return
	}
	c.JSON(http.StatusOK, e)
}

// DRepStats maneja GET /api/dreps/stats.
func (h *DirectoryHandler) DRepStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.dir.Stats(domain.KindDRep))
}

func parsePageQuery(c *gin.Context) (domain.PageQuery, error) {
	q := domain.PageQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		Sort:      c.Query("sort"),
		Direction: strings.ToLower(c.Query("direction")),
	}
	var err error
	if q.Page, err = intParam(c, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(c, "page_size"); err != nil {
		return q, err
	}
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Statuses = append(q.Statuses, s)
			}
		}
	}
	return q.Normalize(), nil
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}
