package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"notebin/internal/config"
	"notebin/internal/repository/remote"
	"notebin/internal/service"
	"notebin/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dir := flag.String("dir", "", "Directory of legacy note files (defaults to LEGACY_DIR)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall time limit")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if *dir == "" {
		*dir = cfg.LegacyDir
	}

	// Setup logger
	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, "import", cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}
	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Importing legacy notes from %s into %s (backend: %s)", *dir, cfg.StorePath, cfg.StoreBackend)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	blobStore, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	coordinator := remote.NewCoordinator(blobStore, cfg.StorePath, logger,
		remote.WithMaxAttempts(cfg.MaxAttempts),
		remote.WithRetryBackoff(cfg.RetryBackoff),
	)
	repo := remote.NewRecordRepository(coordinator, 0, logger)
	importService := service.NewImportService(blobStore, repo, logger)

	result, err := importService.ImportLegacy(ctx, *dir)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Scanned %d file(s), imported %d, skipped %d", result.Scanned, result.Imported, len(result.Skipped))
	for _, p := range result.Skipped {
		log.Printf("  skipped: %s", p)
	}
}
