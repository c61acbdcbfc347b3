package gateway

import (
	"net/http"

	"github.com/saransh1220/procurement-console/internal/gateway/middleware"
)

// Router wraps http.ServeMux and separates public routes from routes that
// require a bearer token.
type Router struct {
	mux  *http.ServeMux
	auth *middleware.AuthMiddleWare
}

func NewRouter(auth *middleware.AuthMiddleWare) *Router {
	return &Router{
		mux:  http.NewServeMux(),
		auth: auth,
	}
}

// Mux returns the underlying http.ServeMux
func (r *Router) Mux() *http.ServeMux {
	return r.mux
}

func (r *Router) Public(pattern string, handler http.HandlerFunc) {
	r.mux.Handle(pattern, handler)
}

// Protected registers handler behind RequireAuth.
func (r *Router) Protected(pattern string, handler http.HandlerFunc) {
	r.mux.Handle(pattern, r.auth.RequireAuth(handler))
}
