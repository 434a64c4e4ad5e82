package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/micromerit/ai-service/internal/adapters/mcp"
	"github.com/micromerit/ai-service/internal/bootstrap"
	"github.com/micromerit/ai-service/internal/config"
	"github.com/micromerit/ai-service/internal/observability/logging"
)

var version = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.Validate() != nil {
		cfg.EnrichEnabled = false
	}

	// stdout carries the MCP protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	pipeline := bootstrap.NewPipeline(cfg, bootstrap.Options{Logger: logger})

	s := mcpadapter.NewServer(pipeline.CertificateID, version)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
