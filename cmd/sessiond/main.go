// Command sessiond runs the Session Execution Engine: the HTTP/WebSocket
// API, the session Engine that drives browser automation steps, and the
// background retention sweep.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/tarsy/pkg/agent"
	"github.com/codeready-toolchain/tarsy/pkg/api"
	"github.com/codeready-toolchain/tarsy/pkg/cache"
	"github.com/codeready-toolchain/tarsy/pkg/cleanup"
	"github.com/codeready-toolchain/tarsy/pkg/config"
	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/engine"
	"github.com/codeready-toolchain/tarsy/pkg/events"
	"github.com/codeready-toolchain/tarsy/pkg/masking"
	"github.com/codeready-toolchain/tarsy/pkg/notify"
	"github.com/codeready-toolchain/tarsy/pkg/services"
	"github.com/codeready-toolchain/tarsy/pkg/vision"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	dashboardDir := flag.String("dashboard-dir",
		getEnv("DASHBOARD_DIR", ""),
		"Path to the built dashboard static assets (empty disables static serving)")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")

	log.Printf("Starting sessiond")
	log.Printf("HTTP address: %s", httpAddr)
	log.Printf("Config directory: %s", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	stats := cfg.Stats()
	log.Printf("Configuration initialized: %d LLM provider(s)", stats.LLMProviders)

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL, migrations applied")

	db := dbClient.DB()
	sessionStore := database.NewSessionStore(db)
	actionStore := database.NewActionStore(db)
	eventStore := database.NewEventStore(db)
	planStore := database.NewPlanStore(db)

	actionCache := cache.New(planStore)
	eventPublisher := events.NewEventPublisher(db)

	catchupQuerier := events.NewEventServiceAdapter(eventStore)
	connManager := events.NewConnectionManager(catchupQuerier, 10*time.Second)

	if connString := getEnv("DATABASE_NOTIFY_URL", ""); connString != "" {
		listener := events.NewNotifyListener(connString, connManager)
		if err := listener.Start(ctx); err != nil {
			log.Fatalf("Failed to start NOTIFY listener: %v", err)
		}
	}

	registry := engine.NewRegistry()
	browsers := engine.NewBrowserManager(func() string { return uuid.New().String() })

	notifyService := notify.NewService(notify.ServiceConfig{
		Token:               cfg.Notify.Token,
		Channel:             cfg.Notify.Channel,
		DashboardURL:        cfg.Notify.DashboardURL,
		EscalationThreshold: cfg.Notify.EscalationThreshold,
	})

	eng := engine.New(engine.Dependencies{
		Config:       cfg,
		Sessions:     sessionStore,
		Actions:      actionStore,
		Cache:        actionCache,
		Events:       eventPublisher,
		Registry:     registry,
		NewLLMClient: newLLMClient,
		NewDetector:  newDetectors,
		CDPBaseURL:   cfg.Defaults.CDPURL,
		Masking:      masking.NewService(),
		Notify:       notifyService,
	})

	sessionService := services.NewSessionService(sessionStore, eng)
	actionService := services.NewActionService(actionStore)
	eventService := services.NewEventService(eventStore)

	cleanupService := cleanup.NewService(cfg.Retention, sessionService, eventService)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	server := api.NewServer(dbClient, sessionService, actionService, browsers, connManager)
	if *dashboardDir != "" {
		server.SetDashboardDir(*dashboardDir)
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := server.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received, draining connections...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during HTTP server shutdown", "error", err)
	}
}

// newLLMClient dials the out-of-process LLM sidecar over gRPC (spec's
// "no claim on specific LLM provider" Non-goal: the concrete provider SDK
// lives in the sidecar, reached at LLM_GRPC_ADDR).
func newLLMClient(_ context.Context, _ *config.Config) (agent.LLMClient, error) {
	addr := getEnv("LLM_GRPC_ADDR", "localhost:50051")
	return agent.NewGRPCLLMClient(addr)
}

// newDetectors builds the Vision Grounding detector pair (spec §4.6):
// a remote MCP-backed primary when VISION_DETECTOR_MCP_SERVER is
// configured, falling back to the in-process contour detector, which
// also runs alone when no MCP server is configured.
func newDetectors() (vision.Detector, vision.Detector, bool) {
	fallback := vision.NewContourDetector()
	serverURL := os.Getenv("VISION_DETECTOR_MCP_SERVER")
	if serverURL == "" {
		return nil, fallback, true
	}
	return vision.NewMCPDetector(serverURL), fallback, true
}
