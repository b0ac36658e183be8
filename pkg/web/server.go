// Package web serves the dashboard that stands in for the camera screen.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/teslashibe/go-deliciousfood/pkg/hub"
	"github.com/teslashibe/go-deliciousfood/pkg/permission"
)

// ErrNotConfigured is returned by actions whose callback is unset.
var ErrNotConfigured = errors.New("web: action not configured")

// Config holds dashboard configuration.
type Config struct {
	Addr         string // Listen address, e.g. ":8080"
	PreviewWidth int    // Shown images wider than this are downscaled, 0 keeps size
	JPEGQuality  int    // Quality of the preview served at /api/image
	Logger       *slog.Logger
}

// DefaultConfig returns dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		PreviewWidth: 1024,
		JPEGQuality:  85,
	}
}

// Server is the dashboard. It implements ui.View; view methods are
// expected on the UI looper while HTTP handlers run on fiber goroutines.
type Server struct {
	app    *fiber.App
	config Config
	hub    *hub.Hub
	logger *slog.Logger

	mu        sync.RWMutex
	state     State
	image     []byte
	snackbars map[string]func()

	// Post runs fn on the UI looper. Required for snackbar actions.
	Post func(fn func()) bool

	// OnCapture is the "take picture" action.
	OnCapture func() error

	// OnPermissionResult delivers the consent dialog answer.
	OnPermissionResult func(code permission.RequestCode, grants []permission.Grant) error

	// OnResetPermissions forgets every recorded consent decision.
	OnResetPermissions func() error
}

// NewServer creates the dashboard server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultConfig().JPEGQuality
	}

	s := &Server{
		config:    cfg,
		hub:       hub.New("ui", logger),
		logger:    logger.With("component", "web"),
		snackbars: make(map[string]func()),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Delicious Food",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/image", s.handleImage)
	api.Post("/capture", s.handleCapture)
	api.Post("/snackbar/:id", s.handleSnackbar)
	api.Post("/permissions/:code", s.handlePermissionResult)
	api.Delete("/permissions", s.handleResetPermissions)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/ui", websocket.New(s.handleUIWS))

	s.app = app
	return s
}

// App exposes the fiber app for tests and extra routes.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the UI event hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Start runs the event hub and serves on the configured address until
// Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run(ctx)
	s.logger.Info("dashboard listening", "url", "http://"+ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// State returns a copy of the dashboard state.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Server) snapshotLocked() State {
	st := s.state
	if st.Result != nil {
		p := *st.Result
		st.Result = &p
	}
	if st.Snackbar != nil {
		sb := *st.Snackbar
		st.Snackbar = &sb
	}
	if st.Permission != nil {
		req := *st.Permission
		req.Permissions = append([]permission.Permission(nil), req.Permissions...)
		st.Permission = &req
	}
	return st
}

func (s *Server) broadcast(e Event) {
	if err := s.hub.BroadcastJSON(e); err != nil {
		s.logger.Warn("failed to encode event", "type", e.Type, "error", err)
	}
}
