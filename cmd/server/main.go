package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tablegate/tablegate/api"
	"github.com/tablegate/tablegate/internal/auth"
	"github.com/tablegate/tablegate/internal/config"
	"github.com/tablegate/tablegate/internal/logger"
	"github.com/tablegate/tablegate/internal/mcp"
	"github.com/tablegate/tablegate/internal/query"
	"github.com/tablegate/tablegate/internal/session"
	"github.com/tablegate/tablegate/internal/transport"
	"github.com/tablegate/tablegate/pkg/db"
	"github.com/tablegate/tablegate/pkg/dbtools"
	"github.com/tablegate/tablegate/pkg/tools"
)

func main() {
	transportMode := flag.String("t", "", "Transport mode (sse or stdio)")
	port := flag.Int("port", 0, "Server port")
	insecureNoAuth := flag.Bool("insecure-no-auth", false, "Accept unauthenticated requests (development only, requires no token configured)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *transportMode != "" {
		cfg.TransportMode = *transportMode
	}
	if *port != 0 {
		cfg.ServerPort = *port
	}

	logger.Initialize(cfg.LogLevel)
	logger.Info("Starting %s with %s transport", mcp.ServerName, cfg.TransportMode)

	database, err := db.NewDatabase(db.Config{
		Type:     cfg.DBConfig.Type,
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		Name:     cfg.DBConfig.Name,
		DSN:      cfg.DBConfig.DSN,
	})
	if err != nil {
		logger.Error("Invalid database configuration: %v", err)
		os.Exit(1)
	}
	if err := database.Connect(); err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("Failed to close database: %v", err)
		}
	}()

	compiler := query.NewCompiler(database.DriverName())
	registry := tools.NewRegistry()
	dbtools.RegisterTools(registry, database, compiler)
	handler := mcp.NewHandler(registry)
	logger.Info("Registered tools: %v", registry.Names())

	gate := auth.NewGate(cfg.AuthToken, cfg.IsProduction())
	if *insecureNoAuth {
		if cfg.IsProduction() {
			logger.Error("-insecure-no-auth is not allowed in production")
			os.Exit(1)
		}
		gate.AllowUnauthenticated()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.TransportMode {
	case "stdio":
		if err := transport.NewStdioTransport(handler).Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Stdio transport failed: %v", err)
			os.Exit(1)
		}
	case "sse", "http":
		runHTTPServer(ctx, cfg, handler, gate)
	default:
		logger.Error("Unknown transport mode: %s", cfg.TransportMode)
		os.Exit(1)
	}
}

func runHTTPServer(ctx context.Context, cfg *config.Config, handler *mcp.Handler, gate *auth.Gate) {
	clients := session.NewRegistry()
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: api.New(handler, gate, clients),
	}

	go func() {
		logger.Info("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}
