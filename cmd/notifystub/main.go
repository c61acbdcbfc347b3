package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/saransh1220/procurement-console/internal/gateway"
	"github.com/saransh1220/procurement-console/internal/gateway/middleware"
	"github.com/saransh1220/procurement-console/internal/modules/auth"
	"github.com/saransh1220/procurement-console/internal/modules/notification"
	"github.com/saransh1220/procurement-console/internal/shared/infrastructure/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	authModule := auth.NewModule(cfg.JWT.Secret, cfg.JWT.Expiry)
	authMiddleware := middleware.NewAuthMiddleware(authModule.Service())
	if !authModule.Service().Verifies() {
		log.Println("JWT_SECRET is not set: tokens are decoded without verification and /dev/token is disabled")
	}

	notificationModule := notification.NewModule(authMiddleware.VerifyRegistration)
	defer notificationModule.Shutdown()

	handler := gateway.NewHandler(gateway.RouterConfig{
		AuthHandler:         authModule.HTTPHandler(),
		AuthMiddleware:      authMiddleware,
		NotificationHandler: notificationModule.HTTPHandler(),
		AllowedOrigins:      cfg.Server.AllowedOrigins,
	})

	return gateway.NewServer(cfg.Server.Port, handler).Run(ctx)
}
