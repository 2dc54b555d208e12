// Package persistence provides the flow store abstraction used by the engine and the editor API.
package persistence

import (
	"context"

	"github.com/dukex/instaflow/pkg/models"
)

// Persistence is the flow store. Implementations must make
// IncrementExecutionCount atomic with respect to concurrent callers.
type Persistence interface {
	// Flows returns every flow in store order.
	Flows(ctx context.Context) ([]*models.AutomationFlow, error)

	// ActiveFlows returns the flows with IsActive set, in store order.
	ActiveFlows(ctx context.Context) ([]*models.AutomationFlow, error)

	// FlowByID returns ErrFlowNotFound when no flow has the given id.
	FlowByID(ctx context.Context, id string) (*models.AutomationFlow, error)

	SaveFlow(ctx context.Context, flow *models.AutomationFlow) error
	DeleteFlow(ctx context.Context, id string) error
	IncrementExecutionCount(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
