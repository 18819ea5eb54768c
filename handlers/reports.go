package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/storage"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/logger"
)

// ReportsHandler stores and serves generated report artifacts on MinIO.
type ReportsHandler struct {
	store *storage.ArtifactStore
}

func NewReportsHandler(store *storage.ArtifactStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

func (h *ReportsHandler) Register(rg *gin.RouterGroup) {
	r := rg.Group("/reports")
	r.POST("/:id/artifact", h.Upload)
	r.GET("/:id/artifact/url", h.PresignedURL)
}

// Upload stores the request body as the report's artifact.
func (h *ReportsHandler) Upload(c *gin.Context) {
	id := c.Param("id")
	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if c.Request.ContentLength <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty artifact body"})
		return
	}
	err := h.store.PutArtifact(c.Request.Context(), id, c.Request.Body, c.Request.ContentLength, contentType)
	if err != nil {
		logger.Errorf("artifact upload for report %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reportId": id})
}

// PresignedURL returns a short-lived download URL for the artifact.
func (h *ReportsHandler) PresignedURL(c *gin.Context) {
	id := c.Param("id")
	u, err := h.store.PresignedArtifactURL(c.Request.Context(), id, 15*time.Minute)
	if err != nil {
		logger.Errorf("presign artifact for report %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "expiresIn": 900})
}
