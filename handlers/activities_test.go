package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActivitiesRouter(sub string) *gin.Engine {
	svc := activity.NewService(activity.NewMemoryRepository())
	h := NewActivitiesHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if sub != "" {
			c.Set("claims", map[string]interface{}{"sub": sub})
		}
		c.Next()
	})
	rg := r.Group("/api/v1")
	h.Register(rg)
	h.RegisterSummary(rg)
	return r
}

func TestActivities_CreateAndList(t *testing.T) {
	r := newActivitiesRouter("u1")

	req := httptest.NewRequest("POST", "/api/v1/activities", strings.NewReader(`{"kind":"coding","minutes":45}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var created activity.Activity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, "General", created.Department)

	req2 := httptest.NewRequest("GET", "/api/v1/activities", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
	var got struct {
		Activities []*activity.Activity `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &got))
	require.Len(t, got.Activities, 1)
}

func TestActivities_CreateValidation(t *testing.T) {
	r := newActivitiesRouter("u1")

	req := httptest.NewRequest("POST", "/api/v1/activities", strings.NewReader(`{"kind":"coding","minutes":-10}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivities_RequiresClaims(t *testing.T) {
	r := newActivitiesRouter("")

	req := httptest.NewRequest("POST", "/api/v1/activities", strings.NewReader(`{"kind":"coding"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActivities_GetMissing(t *testing.T) {
	r := newActivitiesRouter("u1")
	req := httptest.NewRequest("GET", "/api/v1/activities/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivities_UpdateAndDelete(t *testing.T) {
	r := newActivitiesRouter("u1")

	req := httptest.NewRequest("POST", "/api/v1/activities", strings.NewReader(`{"kind":"meeting","minutes":30}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var created activity.Activity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req2 := httptest.NewRequest("PATCH", "/api/v1/activities/"+created.ID, strings.NewReader(`{"description":"standup"}`))
	req2.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
	var updated activity.Activity
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &updated))
	assert.Equal(t, "standup", updated.Description)

	req3 := httptest.NewRequest("DELETE", "/api/v1/activities/"+created.ID, nil)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req3)
	require.Equal(t, http.StatusNoContent, w3.Code)

	req4 := httptest.NewRequest("GET", "/api/v1/activities/"+created.ID, nil)
	w4 := httptest.NewRecorder()
	r.ServeHTTP(w4, req4)
	require.Equal(t, http.StatusNotFound, w4.Code)
}

func TestActivities_ListBadTimestamp(t *testing.T) {
	r := newActivitiesRouter("u1")
	req := httptest.NewRequest("GET", "/api/v1/activities?from=yesterday", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivities_Summary(t *testing.T) {
	r := newActivitiesRouter("u1")

	for _, body := range []string{
		`{"kind":"coding","minutes":60,"department":"IT"}`,
		`{"kind":"review","minutes":30,"department":"IT"}`,
		`{"kind":"meeting","minutes":45}`,
	} {
		req := httptest.NewRequest("POST", "/api/v1/activities", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/activities-summary", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Summary []*activity.SummaryRow `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Summary, 2)
}
