// Package redis keeps the execution log in a capped Redis list.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/instaflow/pkg/executionlog"
	"github.com/dukex/instaflow/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

const DefaultKey = "instaflow:executions"

type Store struct {
	client   redis.UniversalClient
	logger   *slog.Logger
	key      string
	capacity int
}

// NewStore connects to the Redis server at url (redis://[:password@]host:port/db).
func NewStore(ctx context.Context, logger *slog.Logger, url string, capacity int) (*Store, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewStoreWithClient(logger, client, DefaultKey, capacity), nil
}

func NewStoreWithClient(logger *slog.Logger, client redis.UniversalClient, key string, capacity int) *Store {
	if capacity <= 0 {
		capacity = executionlog.DefaultCapacity
	}

	return &Store{
		client:   client,
		logger:   logger.With("module", "redis_execution_log"),
		key:      key,
		capacity: capacity,
	}
}

// Append pushes and trims inside MULTI/EXEC so the cap holds under concurrency.
func (s *Store) Append(ctx context.Context, record models.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal execution record %s: %w", record.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, data)
		pipe.LTrim(ctx, s.key, 0, int64(s.capacity-1))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append execution record %s: %w", record.ID, err)
	}

	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]models.ExecutionRecord, error) {
	limit = executionlog.ClampLimit(limit, s.capacity)
	if limit == 0 {
		// LRANGE 0 -1 would return the whole list.
		return []models.ExecutionRecord{}, nil
	}

	values, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read execution records: %w", err)
	}

	records := make([]models.ExecutionRecord, 0, len(values))

	for _, value := range values {
		var record models.ExecutionRecord

		err := json.Unmarshal([]byte(value), &record)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping undecodable execution record", "error", err)

			continue
		}

		records = append(records, record)
	}

	return records, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
