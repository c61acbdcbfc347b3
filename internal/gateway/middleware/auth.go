package middleware

import (
	"context"
	"net/http"
	"strings"

	authdomain "github.com/saransh1220/procurement-console/internal/modules/auth/domain"
)

type contextKey string

const (
	ContextKeyUserId contextKey = "user_id"
	ContextKeyRole   contextKey = "role"
)

// Identifier resolves a bearer token to the identity it was issued for.
type Identifier interface {
	Identify(token string) (authdomain.Identity, error)
}

type AuthMiddleWare struct {
	identifier Identifier
}

func NewAuthMiddleware(identifier Identifier) *AuthMiddleWare {
	return &AuthMiddleWare{identifier: identifier}
}

// BearerToken extracts the token from the Authorization header, falling back
// to the token query parameter used by browser websocket handshakes.
func BearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireAuth rejects requests without a valid bearer token and injects the
// caller's id and role into the request context.
func (m *AuthMiddleWare) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := BearerToken(r)
		if tokenStr == "" {
			http.Error(w, `{"error": "missing or invalid authorization"}`, http.StatusUnauthorized)
			return
		}

		identity, err := m.identifier.Identify(tokenStr)
		if err != nil {
			http.Error(w, `{"error": "invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// VerifyRegistration checks that token belongs to subscriberID. It backs the
// register frame of the live channel, which carries its own credentials.
func (m *AuthMiddleWare) VerifyRegistration(subscriberID, token string) error {
	identity, err := m.identifier.Identify(token)
	if err != nil {
		return err
	}
	if identity.ID != subscriberID {
		return authdomain.ErrInvalidToken
	}
	return nil
}

// UserID returns the caller id injected by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserId).(string)
	return id, ok && id != ""
}

func withIdentity(ctx context.Context, identity authdomain.Identity) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserId, identity.ID)
	return context.WithValue(ctx, ContextKeyRole, identity.Role)
}
