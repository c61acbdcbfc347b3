package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/saransh1220/procurement-console/internal/gateway/middleware"
	"github.com/saransh1220/procurement-console/internal/modules/auth/domain"
)

// TokenIssuer signs tokens for the development stub.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

type AuthHandler struct {
	issuer TokenIssuer
}

func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// IssueToken hands out a token for any requested identity. It exists so local
// runs of the console have a credential to use.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req domain.Identity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	token, err := h.issuer.Issue(req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingSubject):
			http.Error(w, `{"error":"user_id is required"}`, http.StatusBadRequest)
		case errors.Is(err, domain.ErrSigningDisabled):
			http.Error(w, `{"error":"token issuing is disabled"}`, http.StatusNotImplemented)
		default:
			log.Printf("[Auth] IssueToken failed: %v", err)
			http.Error(w, `{"error":"failed to issue token"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(string)
	if !ok || userID == "" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	role, _ := r.Context().Value(middleware.ContextKeyRole).(string)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(domain.Identity{ID: userID, Role: role})
}
