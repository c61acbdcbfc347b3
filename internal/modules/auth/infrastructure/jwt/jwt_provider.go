package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saransh1220/procurement-console/internal/modules/auth/domain"
)

type CustomClaims struct {
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity maps the claims onto an Identity, preferring user_id over sub.
func (c *CustomClaims) Identity() (domain.Identity, error) {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return domain.Identity{}, domain.ErrMissingSubject
	}
	return domain.Identity{ID: id, Role: c.Role, Name: c.Name}, nil
}

// GenerateToken signs an HS256 token for identity that expires after
// duration.
func GenerateToken(secret string, duration time.Duration, identity domain.Identity) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID: identity.ID,
		Role:   identity.Role,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies the HMAC signature and the time claims of tokenStr.
func ValidateToken(tokenStr string, secret string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenMalformed
}

// DecodeToken reads the claims of tokenStr without checking its signature.
// Callers that are not the authority for the token use it to learn who they
// are; the backend still verifies every request.
func DecodeToken(tokenStr string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}
