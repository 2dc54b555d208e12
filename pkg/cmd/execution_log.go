package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/instaflow/pkg/executionlog"
	"github.com/dukex/instaflow/pkg/executionlog/memory"
	"github.com/dukex/instaflow/pkg/executionlog/postgresql"
	"github.com/dukex/instaflow/pkg/executionlog/redis"
)

// NewExecutionLog opens the execution log backend named by url:
// memory://, redis://, rediss:// or postgres://.
func NewExecutionLog(ctx context.Context, logger *slog.Logger, url string, capacity int) (*executionlog.Log, error) {
	var (
		store executionlog.Store
		err   error
	)

	switch scheme(url) {
	case "memory", "":
		store = memory.NewStore(capacity)
	case "redis", "rediss":
		store, err = redis.NewStore(ctx, logger, url, capacity)
	case "postgres", "postgresql":
		store, err = postgresql.NewStore(ctx, logger, url, capacity)
	default:
		return nil, fmt.Errorf("unsupported execution log url scheme %q", scheme(url))
	}

	if err != nil {
		return nil, err
	}

	return executionlog.New(logger, store), nil
}
