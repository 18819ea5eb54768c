package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/profiles"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/resolver"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/logger"
)

// AdminHandler exposes the user-administration endpoints. Routes are meant
// to be registered behind RequireRole("developer").
type AdminHandler struct {
	repo profiles.Repository
	res  *resolver.Resolver
}

func NewAdminHandler(repo profiles.Repository, res *resolver.Resolver) *AdminHandler {
	return &AdminHandler{repo: repo, res: res}
}

func (h *AdminHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/admin")
	a.GET("/users", h.ListUsers)
	a.PUT("/users/:id/role", h.UpdateRole)
	a.POST("/cache/bust/:id", h.BustCache)
}

// ListUsers returns all profiles.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		logger.Errorf("list profiles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// UpdateRole changes a profile's role. The resolver cache entry for the
// user is busted afterwards so the next resolution sees the new role.
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// explicit validation here: silently demoting an admin typo to
	// employee would hide the mistake
	role := models.Role(req.Role)
	if models.NormalizeRole(req.Role) != role {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err := h.repo.UpdateRole(c.Request.Context(), id, role); err != nil {
		logger.Errorf("update role for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.res.BustCache(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
}

// BustCache drops the resolver cache entry for a user.
func (h *AdminHandler) BustCache(c *gin.Context) {
	id := c.Param("id")
	h.res.BustCache(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "busted": true})
}
