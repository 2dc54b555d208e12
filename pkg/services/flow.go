package services

import (
	"context"
	"fmt"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/persistence"
)

// Flow handles editor operations on automation flows.
type Flow struct {
	persistence persistence.Persistence
	validator   *FlowValidator
}

// NewFlow creates a new flow service.
func NewFlow(persistence persistence.Persistence, nodes NodeValidator) *Flow {
	return &Flow{
		persistence: persistence,
		validator:   NewFlowValidator(nodes),
	}
}

// HealthCheck checks the health of the persistence layer.
func (f *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if f.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := f.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (f *Flow) List(ctx context.Context) ([]*models.AutomationFlow, error) {
	flows, err := f.persistence.Flows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	return flows, nil
}

func (f *Flow) GetByID(ctx context.Context, id string) (*models.AutomationFlow, error) {
	flow, err := f.persistence.FlowByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	return flow, nil
}

// Validate checks a flow without saving it.
func (f *Flow) Validate(flow *models.AutomationFlow) error {
	return f.validator.Validate(flow)
}

// Create validates and stores a new flow. The execution count always starts at zero.
func (f *Flow) Create(ctx context.Context, flow *models.AutomationFlow) (*models.AutomationFlow, error) {
	err := f.validator.Validate(flow)
	if err != nil {
		return nil, err
	}

	flow.ExecutionCount = 0

	err = f.persistence.SaveFlow(ctx, flow)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	return flow, nil
}

// Update replaces the editable parts of an existing flow.
func (f *Flow) Update(ctx context.Context, id string, flow *models.AutomationFlow) (*models.AutomationFlow, error) {
	existing, err := f.persistence.FlowByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	err = f.validator.Validate(flow)
	if err != nil {
		return nil, err
	}

	flow.ID = existing.ID
	flow.CreatedAt = existing.CreatedAt
	flow.ExecutionCount = existing.ExecutionCount

	err = f.persistence.SaveFlow(ctx, flow)
	if err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}

	return flow, nil
}

func (f *Flow) Delete(ctx context.Context, id string) error {
	err := f.persistence.DeleteFlow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}

	return nil
}

// SetActive toggles whether a flow receives events. Activation re-validates
// the flow so node types removed since it was saved are caught early.
func (f *Flow) SetActive(ctx context.Context, id string, active bool) (*models.AutomationFlow, error) {
	flow, err := f.persistence.FlowByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	if active {
		err := f.validator.Validate(flow)
		if err != nil {
			return nil, err
		}
	}

	flow.IsActive = active

	err = f.persistence.SaveFlow(ctx, flow)
	if err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	return flow, nil
}
