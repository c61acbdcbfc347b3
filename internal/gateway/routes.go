package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/procurement-console/internal/gateway/middleware"
	auth_http "github.com/saransh1220/procurement-console/internal/modules/auth/interfaces/http"
	notification_http "github.com/saransh1220/procurement-console/internal/modules/notification/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthHandler         *auth_http.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleWare
	NotificationHandler *notification_http.NotificationHandler
	AllowedOrigins      string
}

// SetupRoutes creates and configures all stub backend routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	router := NewRouter(config.AuthMiddleware)

	router.Public("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	router.Mux().Handle("GET /metrics", promhttp.Handler())

	// Auth Routes
	router.Public("POST /dev/token", config.AuthHandler.IssueToken)
	router.Protected("GET /me", config.AuthHandler.Me)

	// Notification Routes
	router.Protected("GET /notifications/{subscriberId}", config.NotificationHandler.ListNotifications)
	router.Protected("POST /notifications/mark-read", config.NotificationHandler.MarkAsRead)
	router.Protected("POST /notifications/delete", config.NotificationHandler.Delete)
	router.Protected("POST /notifications/{$}", config.NotificationHandler.Create)
	router.Public("GET /ws", config.NotificationHandler.Subscribe)

	return router.Mux()
}

// NewHandler wraps the routes in the CORS and metrics middleware.
func NewHandler(config RouterConfig) http.Handler {
	return middleware.PrometheusMiddleware(middleware.CORSMiddleware(SetupRoutes(config), config.AllowedOrigins))
}
