// Package store selects the blob store backend named in configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"notebin/internal/config"
	"notebin/internal/domain/repositories"
	"notebin/internal/store/github"
	"notebin/internal/store/memory"
	"notebin/internal/store/sqlite"
)

// Open creates the configured blob store. The returned close function is
// never nil.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.BlobStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case "github":
		client, err := github.NewClient(github.Config{
			BaseURL:   cfg.GitHubAPIURL,
			Owner:     cfg.GitHubOwner,
			Repo:      cfg.GitHubRepo,
			Branch:    cfg.GitHubBranch,
			Token:     cfg.GitHubToken,
			UserAgent: cfg.GitHubUserAgent,
			Timeout:   cfg.StoreTimeout,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("sqlite store: %w", err)
		}
		return s, s.Close, nil

	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
