package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/config"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/profiles"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/resolver"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/sessions"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/tokens"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/logger"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/middleware"
)

// LoginRequest carries the ID token obtained from the auth provider.
type LoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// AuthHandler wires the OIDC verifier, the identity resolver and the
// refresh-session store behind the /auth endpoints.
type AuthHandler struct {
	cfg          *config.Config
	verifier     middleware.Verifier
	res          *resolver.Resolver
	profilesRepo profiles.Repository
	sessionsSvc  *sessions.Service
	enforcer     *resolver.Enforcer
}

func NewAuthHandler(cfg *config.Config, ver middleware.Verifier, res *resolver.Resolver, repo profiles.Repository, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, verifier: ver, res: res, profilesRepo: repo, sessionsSvc: s}
}

// SetEnforcer attaches a periodic expiry enforcer. When set, a successful
// login starts it for the signed-in user and logout stops it.
func (h *AuthHandler) SetEnforcer(e *resolver.Enforcer) { h.enforcer = e }

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// RegisterProtected registers the endpoints that need verified claims.
func (h *AuthHandler) RegisterProtected(rg *gin.RouterGroup) {
	rg.POST("/auth/logout_all", h.LogoutAll)
	rg.GET("/me", h.Me)
}

// Login verifies the provider ID token, resolves the application profile and
// issues access + refresh tokens. A failed backend read still yields a
// usable fallback profile, flagged degraded in the response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tkn, err := h.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": err.Error()})
		return
	}
	var claims map[string]interface{}
	if err := tkn.Claims(&claims); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
		return
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token missing sub claim"})
		return
	}

	sess := resolver.Session{UserID: sub, Email: email, Metadata: claims}
	p, rerr := h.res.HandleAuthEvent(c.Request.Context(), resolver.EventSignedIn, &sess)
	degraded := false
	switch {
	case rerr == nil:
	case errors.Is(rerr, resolver.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, sign in again"})
		return
	case errors.Is(rerr, resolver.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer session change"})
		return
	case errors.Is(rerr, resolver.ErrProfileCreation):
		logger.Errorf("profile creation failed for %s: %v", sub, rerr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile creation failed"})
		return
	case errors.Is(rerr, resolver.ErrProfileLookup):
		logger.Warnf("degraded login for %s: %v", sub, rerr)
		degraded = true
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}

	// record the advisory session window on the profile row; enforcement
	// reads it back later
	if !degraded {
		now := time.Now()
		if err := h.profilesRepo.SetSessionWindow(c.Request.Context(), sub, now, now.Add(h.cfg.JWT.RefreshTokenTTL)); err != nil {
			logger.Warnf("failed to record session window for %s: %v", sub, err)
		}
	}

	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), sub, email, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, p, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	if h.enforcer != nil {
		h.enforcer.Start(sub)
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": rft,
		"profile":      p,
		"degraded":     degraded,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Refresh accepts a refresh token and returns a new access token. The
// resolver serves the profile from cache when it is still fresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessionsSvc.Validate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	rs := resolver.Session{UserID: sess.UserID, Email: sess.Email}
	p, rerr := h.res.HandleAuthEvent(c.Request.Context(), resolver.EventTokenRefreshed, &rs)
	switch {
	case rerr == nil:
	case errors.Is(rerr, resolver.ErrSessionExpired):
		// the refresh token outlived the enforced window; drop it
		_ = h.sessionsSvc.Delete(c.Request.Context(), req.RefreshToken)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, sign in again"})
		return
	case errors.Is(rerr, resolver.ErrProfileLookup):
		logger.Warnf("degraded refresh for %s: %v", sess.UserID, rerr)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}

	access, err := tokens.GenerateAccessToken(h.cfg, p, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access, "expires_in": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout invalidates the refresh token, revokes the presented access token
// and clears resolver state.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.revokePresentedAccessToken(c)

	// the refresh session carries the user id; look it up before deleting so
	// the enforcer and resolver are cleared for that user and nobody else
	sess, _ := h.sessionsSvc.Validate(c.Request.Context(), req.RefreshToken)

	if err := h.sessionsSvc.Delete(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	if sess != nil {
		if h.enforcer != nil {
			h.enforcer.Stop(sess.UserID)
		}
		h.res.OnSessionCleared(sess.UserID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// LogoutAll revokes every refresh session for the authenticated user
// (all devices), revokes the presented access token and clears resolver
// state. Requires AuthMiddleware.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing subject"})
		return
	}

	h.revokePresentedAccessToken(c)

	if err := h.sessionsSvc.RevokeAll(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke sessions"})
		return
	}
	if h.enforcer != nil {
		h.enforcer.Stop(sub)
	}
	h.res.OnSessionCleared(sub)
	c.JSON(http.StatusOK, gin.H{"message": "logged out everywhere"})
}

// Me returns the resolved profile for the authenticated subject. Served from
// the resolver cache when fresh, so repeated calls do not hit the backend.
func (h *AuthHandler) Me(c *gin.Context) {
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing subject"})
		return
	}
	email, _ := claimString(c, "email")

	rs := resolver.Session{UserID: sub, Email: email}
	p, rerr := h.res.HandleAuthEvent(c.Request.Context(), resolver.EventTokenRefreshed, &rs)
	switch {
	case rerr == nil:
	case errors.Is(rerr, resolver.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, sign in again"})
		return
	case errors.Is(rerr, resolver.ErrProfileLookup):
		c.JSON(http.StatusOK, gin.H{"profile": p, "degraded": true})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p, "degraded": false})
}

// revokePresentedAccessToken blacklists the Bearer token for its remaining
// lifetime. Best effort: a missing or malformed token is ignored.
func (h *AuthHandler) revokePresentedAccessToken(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return
	}
	var at string
	if n, _ := fmt.Sscanf(auth, "Bearer %s", &at); n != 1 {
		return
	}
	exp, err := parseExpFromJWT(at)
	if err != nil {
		return
	}
	if ttl := time.Until(exp); ttl > 0 {
		if err := sessions.RevokeAccessToken(c.Request.Context(), at, ttl); err != nil {
			logger.Warnf("failed to revoke access token: %v", err)
		}
	}
}

func subjectFromClaims(c *gin.Context) string {
	s, _ := claimString(c, "sub")
	return s
}

func claimString(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get("claims")
	if !ok {
		return "", false
	}
	claims, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := claims[key].(string)
	return s, ok
}

// parseExpFromJWT decodes the JWT payload and returns the `exp` claim as time.Time.
// Payload-only parsing (no signature verification), suitable for computing
// remaining TTLs for revocation.
func parseExpFromJWT(tok string) (time.Time, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid token")
	}
	payload := parts[1]
	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		// try standard base64 (pad) as a fallback
		b, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return time.Time{}, err
		}
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	v, ok := claims["exp"]
	if !ok {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	switch vv := v.(type) {
	case float64:
		return time.Unix(int64(vv), 0), nil
	case json.Number:
		i64, err := vv.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(i64, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported exp type %T", v)
	}
}
