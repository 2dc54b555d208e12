// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dukex/instaflow/pkg/persistence"
	"github.com/dukex/instaflow/pkg/persistence/cache"
	"github.com/dukex/instaflow/pkg/persistence/file"
	"github.com/dukex/instaflow/pkg/persistence/postgresql"
)

// scheme returns the URL scheme of url, or "" when it has none.
func scheme(url string) string {
	before, _, found := strings.Cut(url, "://")
	if !found {
		return ""
	}

	return before
}

// NewPersistence opens the flow store named by databaseURL. A positive
// cacheTTL keeps active flow snapshots in memory for that long.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string, cacheTTL time.Duration) (persistence.Persistence, error) {
	var store persistence.Persistence

	switch scheme(databaseURL) {
	case "postgres", "postgresql":
		pg, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, err
		}

		store = pg
	case "file", "":
		root := strings.TrimPrefix(databaseURL, "file://")

		err := os.MkdirAll(root, 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create flow directory: %w", err)
		}

		store = file.NewPersistence(root)
	default:
		return nil, fmt.Errorf("unsupported database url scheme %q", scheme(databaseURL))
	}

	if cacheTTL > 0 {
		logger.InfoContext(ctx, "Caching active flows", "ttl", cacheTTL)

		store = cache.NewPersistence(store, cacheTTL)
	}

	return store, nil
}
