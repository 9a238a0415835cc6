package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/tendelabs/catalog-search/api"
	"github.com/tendelabs/catalog-search/config"
	"github.com/tendelabs/catalog-search/internal/catalog"
	"github.com/tendelabs/catalog-search/store"
)

func main() {
	// Define command-line flags
	var (
		help      = flag.Bool("help", false, "Show help message")
		version   = flag.Bool("version", false, "Show version information")
		port      = flag.String("port", "8080", "Port to run the server on")
		dataDir   = flag.String("data-dir", "./catalog_data", "Directory to store catalog data")
		logLevel  = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		threshold = flag.Float64("similarity-threshold", config.DefaultSimilarityThreshold, "Trigram similarity threshold")
	)

	flag.Parse()

	if *help {
		fmt.Printf("Catalog Search - hybrid lexical and trigram search for the catalog backend\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                           # Start server on default port 8080\n", os.Args[0])
		fmt.Printf("  %s --port 9000               # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --data-dir /tmp/catalog   # Use custom data directory\n", os.Args[0])
		return
	}

	if *version {
		fmt.Printf("Catalog Search v1.0.0\n")
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	settings := config.DefaultSettings()
	settings.SimilarityThreshold = threshold

	backend, err := store.OpenBackend(filepath.Join(*dataDir, "catalog.db"), false)
	if err != nil {
		logger.Error("failed to open storage backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	catalogService, err := catalog.NewService(store.NewStore(backend), settings, catalog.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create catalog service", "error", err)
		os.Exit(1)
	}

	if err := catalogService.Provision(context.Background()); err != nil {
		logger.Error("provisioning failed", "error", err)
		os.Exit(1)
	}

	router := gin.Default()
	api.SetupRoutes(router, catalogService)

	logger.Info("starting server", "port", *port, "data_dir", *dataDir)
	if err := router.Run(":" + *port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
