package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/auth/domain"
	"github.com/saransh1220/procurement-console/internal/modules/auth/infrastructure/jwt"
)

// IdentityService resolves bearer tokens to identities. With a secret it
// verifies signatures and issues tokens; without one it only decodes.
type IdentityService struct {
	jwtSecret string
	jwtExpiry time.Duration
}

func NewIdentityService(jwtSecret string, jwtExpiry time.Duration) *IdentityService {
	if jwtExpiry <= 0 {
		jwtExpiry = 24 * time.Hour
	}
	return &IdentityService{jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

func (s *IdentityService) Verifies() bool {
	return s.jwtSecret != ""
}

func (s *IdentityService) Identify(token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}

	var (
		claims *jwt.CustomClaims
		err    error
	)
	if s.Verifies() {
		claims, err = jwt.ValidateToken(token, s.jwtSecret)
	} else {
		claims, err = jwt.DecodeToken(token)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return claims.Identity()
}

func (s *IdentityService) Issue(identity domain.Identity) (string, error) {
	if !s.Verifies() {
		return "", domain.ErrSigningDisabled
	}
	if strings.TrimSpace(identity.ID) == "" {
		return "", domain.ErrMissingSubject
	}
	return jwt.GenerateToken(s.jwtSecret, s.jwtExpiry, identity)
}
