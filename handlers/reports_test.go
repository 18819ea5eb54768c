package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestReports_UploadRejectsEmptyBody(t *testing.T) {
	h := NewReportsHandler(nil)
	r := gin.New()
	rg := r.Group("/api/v1")
	h.Register(rg)

	req := httptest.NewRequest("POST", "/api/v1/reports/r1/artifact", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
