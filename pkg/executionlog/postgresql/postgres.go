// Package postgresql keeps the execution log in a capped PostgreSQL table.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/instaflow/pkg/executionlog"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

const migrationsTable = "execution_log_migrations"

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE execution_records (
				seq BIGSERIAL PRIMARY KEY,
				id VARCHAR(255) NOT NULL,
				flow_id VARCHAR(255) NOT NULL,
				flow_name VARCHAR(255) NOT NULL,
				trigger_kind VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				details TEXT NOT NULL,
				actions JSONB NOT NULL DEFAULT '[]',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				duration_ms BIGINT NOT NULL
			);

			CREATE INDEX idx_execution_records_flow_id ON execution_records(flow_id);
		`,
	}
}

type Store struct {
	db       *sql.DB
	logger   *slog.Logger
	capacity int
}

func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string, capacity int) (*Store, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger = logger.With("module", "postgresql_execution_log")

	err = sqlbase.NewMigrationManager(logger, database, migrations()).WithTable(migrationsTable).RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if capacity <= 0 {
		capacity = executionlog.DefaultCapacity
	}

	return &Store{db: database, logger: logger, capacity: capacity}, nil
}

// Append inserts and trims in one transaction; the sequence column orders records.
func (s *Store) Append(ctx context.Context, record models.ExecutionRecord) (err error) {
	actionsJSON, err := json.Marshal(record.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO execution_records (id, flow_id, flow_name, trigger_kind, status, details, actions, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		record.ID,
		record.FlowID,
		record.FlowName,
		record.TriggerKind,
		record.Status,
		record.Details,
		actionsJSON,
		record.StartedAt,
		record.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution record %s: %w", record.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM execution_records
		WHERE seq <= (SELECT seq FROM execution_records ORDER BY seq DESC OFFSET $1 LIMIT 1)
	`, s.capacity)
	if err != nil {
		return fmt.Errorf("failed to trim execution records: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]models.ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow_id, flow_name, trigger_kind, status, details, actions, started_at, duration_ms
		FROM execution_records
		ORDER BY seq DESC
		LIMIT $1
	`, executionlog.ClampLimit(limit, s.capacity))
	if err != nil {
		return nil, fmt.Errorf("failed to query execution records: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]models.ExecutionRecord, 0)

	for rows.Next() {
		var (
			record      models.ExecutionRecord
			actionsJSON []byte
		)

		err := rows.Scan(
			&record.ID,
			&record.FlowID,
			&record.FlowName,
			&record.TriggerKind,
			&record.Status,
			&record.Details,
			&actionsJSON,
			&record.StartedAt,
			&record.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}

		err = json.Unmarshal(actionsJSON, &record.Actions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions of %s: %w", record.ID, err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution records: %w", err)
	}

	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
