// Package api provides the HTTP and WebSocket surface of the Session
// Execution Engine (spec §6 "External interfaces").
package api

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/engine"
	"github.com/codeready-toolchain/tarsy/pkg/events"
	"github.com/codeready-toolchain/tarsy/pkg/services"
)

// Server is the HTTP API server.
type Server struct {
	echo           *echo.Echo
	httpServer     *http.Server
	dbClient       *database.Client
	sessionService *services.SessionService
	actionService  *services.ActionService
	browsers       *engine.BrowserManager
	connManager    *events.ConnectionManager
	dashboardDir   string // path to dashboard build dir (empty = no static serving)
}

// NewServer creates a new API server with Echo v5.
func NewServer(
	dbClient *database.Client,
	sessionService *services.SessionService,
	actionService *services.ActionService,
	browsers *engine.BrowserManager,
	connManager *events.ConnectionManager,
) *Server {
	e := echo.New()

	s := &Server{
		echo:           e,
		dbClient:       dbClient,
		sessionService: sessionService,
		actionService:  actionService,
		browsers:       browsers,
		connManager:    connManager,
	}

	s.setupRoutes()
	return s
}

// SetDashboardDir sets the path to the dashboard build directory and
// registers static file serving routes. When set and the directory
// contains an index.html, assets are served from /assets/* and a SPA
// fallback is registered for all non-API routes.
//
// Must be called after NewServer (which registers API routes first)
// so that API routes take priority over the wildcard SPA fallback.
func (s *Server) SetDashboardDir(dir string) {
	s.dashboardDir = dir
	s.setupDashboardRoutes()
}

// setupRoutes registers all API routes (spec §6 HTTP endpoint table).
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))

	s.echo.GET("/health", s.healthHandler)

	s.echo.POST("/sessions", s.createSessionHandler)
	s.echo.GET("/sessions", s.listSessionsHandler)
	s.echo.GET("/sessions/:id", s.getSessionHandler)
	s.echo.POST("/sessions/:id/start", s.startSessionHandler)
	s.echo.POST("/sessions/:id/pause", s.pauseSessionHandler)
	s.echo.POST("/sessions/:id/resume", s.resumeSessionHandler)
	s.echo.POST("/sessions/:id/cancel", s.cancelSessionHandler)
	s.echo.POST("/sessions/:id/intervene", s.interveneHandler)
	s.echo.POST("/sessions/:id/click-by-mark", s.clickByMarkHandler)
	s.echo.GET("/sessions/:id/actions", s.listActionsHandler)
	s.echo.GET("/sessions/:id/messages", s.listMessagesHandler)

	s.echo.POST("/browser/create", s.createBrowserHandler)
	s.echo.GET("/browser/:id", s.getBrowserHandler)
	s.echo.DELETE("/browser/:id", s.deleteBrowserHandler)

	// WebSocket endpoint for real-time event streaming (spec §6 "WebSocket
	// protocol"): subscribe/start_stream/stop_stream.
	s.echo.GET("/ws", s.wsHandler)

	// Dashboard static file serving is registered via SetDashboardDir(),
	// called after NewServer. This ensures API routes (registered above)
	// take priority over the wildcard SPA fallback.
}

// setupDashboardRoutes registers static file serving for the dashboard build
// directory. When dashboardDir is set and contains an index.html, Vite-built
// assets are served from /assets/* and all other non-API paths fall back to
// index.html (SPA routing).
//
// Cache headers:
//   - /assets/* — immutable (1 year): Vite-built files include content hashes
//     in their filenames, so aggressive caching is safe.
//   - index.html and other root files — no-cache: forces browser revalidation
//     on every visit so new asset hashes are picked up after deployments.
//
// Uses os.DirFS to create an fs.FS rooted at the dashboard directory, because
// Echo v5's c.File() resolves paths against its internal Filesystem (os.DirFS("."))
// and cannot handle absolute paths. c.FileFS() with an explicit filesystem works
// correctly regardless of the dashboard directory location.
func (s *Server) setupDashboardRoutes() {
	if s.dashboardDir == "" {
		return
	}

	indexPath := filepath.Join(s.dashboardDir, "index.html")
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		slog.Warn("Dashboard directory set but index.html not found — skipping static serving",
			"dir", s.dashboardDir)
		return
	}

	slog.Info("Serving dashboard from disk", "dir", s.dashboardDir)

	dashFS := os.DirFS(s.dashboardDir)

	assetsFS, err := fs.Sub(dashFS, "assets")
	if err == nil {
		s.echo.GET("/assets/*", func(c *echo.Context) error {
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			return c.FileFS(c.Param("*"), assetsFS)
		})
	}

	s.echo.GET("/*", func(c *echo.Context) error {
		path := c.Request().URL.Path

		if strings.HasPrefix(path, "/sessions") || strings.HasPrefix(path, "/browser") ||
			path == "/health" || path == "/ws" {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}

		c.Response().Header().Set("Cache-Control", "no-cache")

		relPath := strings.TrimPrefix(path, "/")
		if relPath != "" {
			if info, statErr := fs.Stat(dashFS, relPath); statErr == nil && !info.IsDir() {
				return c.FileFS(relPath, dashFS)
			}
		}

		return c.FileFS("index.html", dashFS)
	})
}

// Start starts the HTTP server on the given address and blocks until it
// stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// reqTimeout bounds the health check's own database ping.
const reqTimeout = 5 * time.Second
