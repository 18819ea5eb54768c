package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/config"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
)

// GenerateAccessToken creates a signed JWT access token for the profile.
// The role claim carries the profile's normalized application role so
// middleware can gate endpoints without a backend read.
func GenerateAccessToken(cfg *config.Config, p *models.Profile, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   p.ID,
		"name":  p.Name,
		"email": p.Email,
		"role":  string(models.NormalizeRole(string(p.Role))),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}
