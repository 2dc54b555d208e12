// Package postgresql provides PostgreSQL persistence for automation flows.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db       *sql.DB
	logger   *slog.Logger
	flowRepo *FlowRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger = logger.With("module", "postgresql_persistence")

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:       database,
		logger:   logger,
		flowRepo: NewFlowRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Flows(ctx context.Context) ([]*models.AutomationFlow, error) {
	return p.flowRepo.GetAll(ctx, false)
}

func (p *Persistence) ActiveFlows(ctx context.Context) ([]*models.AutomationFlow, error) {
	return p.flowRepo.GetAll(ctx, true)
}

func (p *Persistence) FlowByID(ctx context.Context, id string) (*models.AutomationFlow, error) {
	return p.flowRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveFlow(ctx context.Context, flow *models.AutomationFlow) error {
	return p.flowRepo.Save(ctx, flow)
}

func (p *Persistence) DeleteFlow(ctx context.Context, id string) error {
	return p.flowRepo.Delete(ctx, id)
}

func (p *Persistence) IncrementExecutionCount(ctx context.Context, id string) error {
	return p.flowRepo.IncrementExecutionCount(ctx, id)
}
