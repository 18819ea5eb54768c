package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pulsetrack/pulsetrack/backend/go-services/handlers"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/activity"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/config"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/database"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/oidc"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/profiles"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/resolver"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/sessions"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/storage"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/logger"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/metrics"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: issuer=%v redis=%v minio=%v", cfg.Auth.IssuerURL != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple. Production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and token revocation can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetRevocationClient(redisClient)
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Connect to Postgres with retry/backoff to tolerate startup races
	var profilesRepo profiles.Repository
	var activityRepo activity.Repository
	{
		const maxAttempts = 5
		backoff := time.Second
		var pool *pgxpool.Pool
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			pool, errConn = database.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to Postgres: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to Postgres after %d attempts, using memory-backed repositories: %v", maxAttempts, errConn)
			profilesRepo = profiles.NewMemoryRepository()
			activityRepo = activity.NewMemoryRepository()
		} else {
			profilesRepo = profiles.NewPostgresRepository(pool)
			activityRepo = activity.NewPostgresRepository(pool)
		}
	}

	// Refresh sessions live in Redis
	var sessionsSvc *sessions.Service
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for refresh-session storage")
	}

	// OIDC verifier; insecure fallback only under explicit opt-in
	var verifier middleware.Verifier
	if cfg.Auth.IssuerURL != "" && cfg.Auth.ClientID != "" {
		ver, err := oidc.NewVerifierFromConfig(ctx, cfg.Auth)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN"))) == "true" {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}

	// Identity resolver: profile cache + sign-out hook + expiry enforcer
	var signOut resolver.SignOutFunc
	if sessionsSvc != nil {
		signOut = sessionsSvc.RevokeAll
	}
	res := resolver.New(profilesRepo, resolver.NewMemoryCache(cfg.Resolver.ProfileCacheTTL, time.Now), signOut)
	enforcer := resolver.NewEnforcer(res, cfg.Resolver.ExpiryCheckInterval)
	defer enforcer.StopAll()

	// Register auth handlers when the session store is available
	var authH *handlers.AuthHandler
	if verifier != nil && sessionsSvc != nil {
		authH = handlers.NewAuthHandler(cfg, verifier, res, profilesRepo, sessionsSvc)
		authH.SetEnforcer(enforcer)
		authH.Register(r.Group("/"))
	} else {
		logger.Warnf("auth handlers not registered: verifier=%v sessions=%v", verifier != nil, sessionsSvc != nil)
	}

	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["sessions"] = sessionsSvc != nil
		if sessionsSvc == nil {
			ready = false
		}
		if cfg.Auth.IssuerURL != "" {
			deps["oidc"] = verifier != nil
			if verifier == nil {
				ready = false
			}
		} else {
			deps["oidc"] = true
		}
		if cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Protected API surface
	api := r.Group("/api/v1")
	if verifier != nil {
		api.Use(middleware.AuthMiddlewareWithRevocation(verifier, sessions.IsAccessTokenRevoked))

		if authH != nil {
			authH.RegisterProtected(api)
		}

		actH := handlers.NewActivitiesHandler(activity.NewService(activityRepo))
		actH.Register(api)
		mgmt := api.Group("/")
		mgmt.Use(middleware.RequireRole("ceo", "developer"))
		actH.RegisterSummary(mgmt)

		adminGroup := api.Group("/")
		adminGroup.Use(middleware.RequireRole("developer"))
		handlers.NewAdminHandler(profilesRepo, res).Register(adminGroup)

		if cfg.MinIO.Endpoint != "" {
			store, err := storage.NewArtifactStore(cfg.MinIO)
			if err != nil {
				logger.Warnf("report artifact storage unavailable: %v", err)
			} else {
				handlers.NewReportsHandler(store).Register(api)
			}
		}
	} else {
		api.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "OIDC not configured"})
		})
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("config summary: issuer=%v redis=%v jwt_secret_set=%v", cfg.Auth.IssuerURL != "", cfg.Redis.Host != "", cfg.JWT.Secret != "")
	logger.Infof("starting pulsetrack service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
