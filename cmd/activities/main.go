package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsetrack/pulsetrack/backend/go-services/handlers"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/activity"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/database"
)

// Standalone activity-log service. Uses Postgres when POSTGRES_DSN is set,
// otherwise an in-memory repository (local development only). Claims must be
// injected upstream (API gateway) via trusted headers in this mode.
func main() {
	port := os.Getenv("ACTIVITY_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var repo activity.Repository
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn != "" {
		pool, err := database.ConnectPostgres(context.Background(), dsn, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to Postgres (%v), using memory-backed repo", err)
			repo = activity.NewMemoryRepository()
		} else {
			repo = activity.NewPostgresRepository(pool)
		}
	} else {
		repo = activity.NewMemoryRepository()
	}

	svc := activity.NewService(repo)
	h := handlers.NewActivitiesHandler(svc)

	// trust the gateway-provided subject header
	r.Use(func(c *gin.Context) {
		if sub := c.GetHeader("X-Subject"); sub != "" {
			c.Set("claims", map[string]interface{}{"sub": sub})
		}
		c.Next()
	})

	api := r.Group("/api/v1")
	h.Register(api)
	h.RegisterSummary(api)

	log.Printf("activity service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
