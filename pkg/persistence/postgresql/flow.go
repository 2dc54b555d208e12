package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/persistence"
	"github.com/google/uuid"
)

const selectFlows = `
	SELECT
		id
	  , name
	  , description
	  , is_active
	  , nodes
	  , edges
	  , execution_count
	  , created_at
	  , updated_at
	FROM flows
`

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

// GetAll returns flows in store order, optionally only the active ones.
func (r *FlowRepository) GetAll(ctx context.Context, activeOnly bool) ([]*models.AutomationFlow, error) {
	query := selectFlows
	if activeOnly {
		query += " WHERE is_active = true"
	}

	query += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.Unavailable("GetAll", fmt.Errorf("failed to query flows: %w", err))
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	flows := make([]*models.AutomationFlow, 0)

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, persistence.Unavailable("GetAll", err)
		}

		flows = append(flows, flow)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.Unavailable("GetAll", fmt.Errorf("error iterating flows: %w", err))
	}

	return flows, nil
}

func (r *FlowRepository) GetByID(ctx context.Context, id string) (*models.AutomationFlow, error) {
	row := r.db.QueryRowContext(ctx, selectFlows+" WHERE id = $1", id)

	flow, err := scanFlow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewFlowError("GetByID", id, persistence.ErrFlowNotFound)
		}

		return nil, persistence.Unavailable("GetByID", err)
	}

	return flow, nil
}

// Save inserts or replaces a flow. The execution count is owned by
// IncrementExecutionCount and is never overwritten by an editor save.
func (r *FlowRepository) Save(ctx context.Context, flow *models.AutomationFlow) error {
	now := time.Now().UTC()

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	nodesJSON, err := json.Marshal(flow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(flow.Edges)
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	query := `
		INSERT INTO flows (id, name, description, is_active, nodes, edges, execution_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			is_active = EXCLUDED.is_active,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at
		RETURNING execution_count
	`

	err = r.db.QueryRowContext(ctx, query,
		flow.ID,
		flow.Name,
		flow.Description,
		flow.IsActive,
		nodesJSON,
		edgesJSON,
		flow.ExecutionCount,
		flow.CreatedAt,
		flow.UpdatedAt,
	).Scan(&flow.ExecutionCount)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM flows WHERE id = $1", id)
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	return requireRow("Delete", id, result)
}

// IncrementExecutionCount bumps the counter in a single atomic statement.
func (r *FlowRepository) IncrementExecutionCount(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE flows SET execution_count = execution_count + 1 WHERE id = $1", id)
	if err != nil {
		return persistence.NewFlowError("IncrementExecutionCount", id, err)
	}

	return requireRow("IncrementExecutionCount", id, result)
}

func requireRow(op, id string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowError(op, id, fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return persistence.NewFlowError(op, id, persistence.ErrFlowNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlow(row scanner) (*models.AutomationFlow, error) {
	var (
		flow      models.AutomationFlow
		nodesJSON []byte
		edgesJSON []byte
	)

	err := row.Scan(
		&flow.ID,
		&flow.Name,
		&flow.Description,
		&flow.IsActive,
		&nodesJSON,
		&edgesJSON,
		&flow.ExecutionCount,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(nodesJSON, &flow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes of flow %s: %w", flow.ID, err)
	}

	err = json.Unmarshal(edgesJSON, &flow.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges of flow %s: %w", flow.ID, err)
	}

	return &flow, nil
}
