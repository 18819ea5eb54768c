package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/activity"
)

// ActivitiesHandler exposes the activity log. All routes require verified
// claims; the summary endpoint is additionally role-gated at registration.
type ActivitiesHandler struct {
	svc *activity.Service
}

func NewActivitiesHandler(svc *activity.Service) *ActivitiesHandler {
	return &ActivitiesHandler{svc: svc}
}

func (h *ActivitiesHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/activities")
	a.POST("", h.Create)
	a.GET("", h.List)
	a.GET("/:id", h.Get)
	a.PATCH("/:id", h.Update)
	a.DELETE("/:id", h.Delete)
}

// RegisterSummary registers the aggregation endpoint; callers usually gate
// it with RequireRole("ceo", "developer").
func (h *ActivitiesHandler) RegisterSummary(rg *gin.RouterGroup) {
	rg.GET("/activities-summary", h.Summary)
}

func (h *ActivitiesHandler) Create(c *gin.Context) {
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing subject"})
		return
	}
	var req struct {
		Kind        string     `json:"kind" binding:"required"`
		Description string     `json:"description"`
		Minutes     int        `json:"minutes"`
		Department  string     `json:"department"`
		OccurredAt  *time.Time `json:"occurredAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := &activity.Activity{
		UserID:      sub,
		Kind:        req.Kind,
		Description: req.Description,
		Minutes:     req.Minutes,
		Department:  req.Department,
	}
	if req.OccurredAt != nil {
		a.OccurredAt = *req.OccurredAt
	}
	created, err := h.svc.Log(c.Request.Context(), a)
	if err != nil {
		if errors.Is(err, activity.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log activity"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ActivitiesHandler) List(c *gin.Context) {
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing subject"})
		return
	}
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), sub, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": list})
}

func (h *ActivitiesHandler) Get(c *gin.Context) {
	sub := subjectFromClaims(c)
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		if errors.Is(err, activity.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ActivitiesHandler) Update(c *gin.Context) {
	sub := subjectFromClaims(c)
	var req struct {
		Description *string `json:"description"`
		Minutes     *int    `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), sub, req.Description, req.Minutes)
	if err != nil {
		switch {
		case errors.Is(err, activity.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case errors.Is(err, activity.ErrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ActivitiesHandler) Delete(c *gin.Context) {
	sub := subjectFromClaims(c)
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), sub); err != nil {
		if errors.Is(err, activity.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ActivitiesHandler) Summary(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}
	rows, err := h.svc.Summary(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": rows})
}

// parseTimeQuery reads an optional RFC3339 query parameter. On a malformed
// value it writes a 400 response and reports false.
func parseTimeQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + " timestamp"})
		return time.Time{}, false
	}
	return t, true
}
