package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/procurement-console/internal/modules/auth"
	authdomain "github.com/saransh1220/procurement-console/internal/modules/auth/domain"
	"github.com/saransh1220/procurement-console/internal/modules/auth/infrastructure/keyring"
	"github.com/saransh1220/procurement-console/internal/modules/notification"
	"github.com/saransh1220/procurement-console/internal/modules/notification/application"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/metrics"
	"github.com/saransh1220/procurement-console/internal/shared/infrastructure/config"
	"github.com/saransh1220/procurement-console/internal/shared/infrastructure/database"
	"github.com/saransh1220/procurement-console/internal/ui"
)

// TokenEnv overrides the stored bearer token.
const TokenEnv = "NOTIFY_TOKEN"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "login":
		err = loginCmd(os.Args[2:])
	case "logout":
		err = logoutCmd()
	case "watch":
		err = watchCmd(os.Args[2:])
	case "send":
		err = sendCmd(os.Args[2:])
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "notifywatch %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `notifywatch

Usage:
  notifywatch login --token <jwt>
  notifywatch logout
  notifywatch watch [flags]
  notifywatch send --to <id>[,<id>...] --title <title> --message <text> [flags]

Commands:
  login    Store the bearer token in the system keyring.
  logout   Remove the stored bearer token.
  watch    Follow your notifications live.
  send     Create notifications for other subscribers.

Configuration is read from the environment and from the YAML file named by %s.
`, config.ConfigFileEnv)
}

func loginCmd(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	token := fs.String("token", "", "Bearer token issued by the backend")
	_ = fs.Parse(args)

	t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(*token), "Bearer "))
	if t == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	identity, err := auth.NewModule(cfg.JWT.Secret, cfg.JWT.Expiry).Service().Identify(t)
	if err != nil {
		return err
	}

	store, err := keyring.Open()
	if err != nil {
		return err
	}
	if err := store.Set(t); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s.\n", identity.ID)
	return nil
}

func logoutCmd() error {
	store, err := keyring.Open()
	if err != nil {
		return err
	}
	if err := store.Delete(); err != nil && !errors.Is(err, authdomain.ErrCredentialNotFound) {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func watchCmd(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	token := fs.String("token", "", "Bearer token (default: $"+TokenEnv+" or the stored token)")
	logFile := fs.String("log-file", "", "Write logs to this file (default: discard)")
	metricsAddr := fs.String("metrics-addr", "", "Serve prometheus metrics on this address")
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(*logFile, cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionMetrics := metrics.NewSessionMetrics(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	session, identity, err := openSession(ctx, cfg, *token, logger, sessionMetrics)
	if err != nil {
		return err
	}
	if err := session.Start(ctx); err != nil {
		session.Stop()
		return err
	}

	title := "Notifications"
	if identity.Name != "" {
		title += " · " + identity.Name
	}
	_, err = tea.NewProgram(ui.New(ctx, session, title), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	session.Stop()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func sendCmd(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	token := fs.String("token", "", "Bearer token (default: $"+TokenEnv+" or the stored token)")
	to := fs.String("to", "", "Comma-separated receiver ids")
	title := fs.String("title", "", "Notification title")
	message := fs.String("message", "", "Notification message")
	link := fs.String("link", "", "Optional link")
	service := fs.String("service", "", "Service type, e.g. rfq or purchase_order")
	timeout := fs.Duration("timeout", 15*time.Second, "Request timeout")
	_ = fs.Parse(args)

	receivers := splitList(*to)
	if len(receivers) == 0 || strings.TrimSpace(*title) == "" || strings.TrimSpace(*message) == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	session, _, err := openSession(ctx, cfg, *token, logger, nil)
	if err != nil {
		return err
	}
	defer session.Stop()

	req := domain.SendRequest{
		ReceiverIDs: receivers,
		Title:       *title,
		Message:     *message,
		ServiceType: *service,
	}
	if *link != "" {
		req.Link = link
	}
	created, err := session.Send(ctx, req)
	if err != nil {
		return err
	}
	for _, n := range created {
		fmt.Printf("created %s\n", n.ID)
	}
	return nil
}

// openSession resolves the caller's identity and wires an unstarted session.
func openSession(ctx context.Context, cfg config.Config, flagToken string, logger *slog.Logger, m application.Metrics) (*application.Session, authdomain.Identity, error) {
	var source tokenSource
	if store, err := keyring.Open(); err != nil {
		logger.Warn("keyring unavailable", "err", err)
	} else {
		source = store
	}
	token, err := resolveToken(flagToken, os.Getenv(TokenEnv), source)
	if err != nil {
		return nil, authdomain.Identity{}, err
	}

	identity, err := auth.NewModule(cfg.JWT.Secret, cfg.JWT.Expiry).Service().Identify(token)
	if err != nil {
		return nil, authdomain.Identity{}, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = database.NewRedis(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, cross-tab sync disabled", "addr", cfg.Redis.Addr(), "err", err)
			rdb = nil
		}
	}

	subscriber := domain.Subscriber{ID: identity.ID, Role: identity.Role, Name: identity.Name}
	session := notification.NewSession(ctx, subscriber, token, notification.ClientConfig{
		APIBaseURL: cfg.API.BaseURL,
		Origin:     cfg.API.BaseURL,
		Session: application.SessionConfig{
			LiveURL:        cfg.API.LiveURL,
			PollInterval:   cfg.Session.PollInterval,
			BackoffFloor:   cfg.Session.BackoffFloor,
			BackoffCeiling: cfg.Session.BackoffCeiling,
			BackoffFactor:  cfg.Session.BackoffFactor,
		},
		SyncChannel: cfg.Sync.Channel,
		Redis:       rdb,
		Metrics:     m,
		Logger:      logger,
	})
	return session, identity, nil
}

// tokenSource is the part of the credential store resolveToken reads.
type tokenSource interface {
	Get() (string, error)
}

// resolveToken prefers the flag, then the environment, then the keyring.
func resolveToken(flagToken, envToken string, store tokenSource) (string, error) {
	for _, t := range []string{flagToken, envToken} {
		if t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "Bearer ")); t != "" {
			return t, nil
		}
	}
	if store == nil {
		return "", authdomain.ErrMissingToken
	}
	token, err := store.Get()
	if errors.Is(err, authdomain.ErrCredentialNotFound) {
		return "", fmt.Errorf("%w: run `notifywatch login` or set %s", authdomain.ErrMissingToken, TokenEnv)
	}
	return token, err
}

func newLogger(path string, cfg config.LogConfig) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }, nil
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("metrics server stopped", "addr", addr, "err", err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
