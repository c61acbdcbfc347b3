package auth

import (
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/auth/application"
	auth_http "github.com/saransh1220/procurement-console/internal/modules/auth/interfaces/http"
)

// Module represents the Auth module
type Module struct {
	service *application.IdentityService
	handler *auth_http.AuthHandler
}

// NewModule creates the auth module. An empty jwtSecret leaves tokens
// unverified and disables issuing.
func NewModule(jwtSecret string, jwtExpiry time.Duration) *Module {
	service := application.NewIdentityService(jwtSecret, jwtExpiry)
	return &Module{
		service: service,
		handler: auth_http.NewAuthHandler(service),
	}
}

// Service returns the identity service for use by the gateway and by the console
func (m *Module) Service() *application.IdentityService {
	return m.service
}

// HTTPHandler returns the HTTP handler for the auth module
func (m *Module) HTTPHandler() *auth_http.AuthHandler {
	return m.handler
}
