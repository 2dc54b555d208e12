// Package file provides file-based persistence for automation flows.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/persistence"
	"github.com/google/uuid"
)

// Persistence stores one JSON document per flow under root/flows.
// A single mutex serializes writes so count increments are not lost.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Flows(_ context.Context) ([]*models.AutomationFlow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	flows, err := p.readAll()
	if err != nil {
		return nil, persistence.Unavailable("Flows", err)
	}

	return flows, nil
}

func (p *Persistence) ActiveFlows(_ context.Context) ([]*models.AutomationFlow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	flows, err := p.readAll()
	if err != nil {
		return nil, persistence.Unavailable("ActiveFlows", err)
	}

	active := make([]*models.AutomationFlow, 0, len(flows))

	for _, flow := range flows {
		if flow.IsActive {
			active = append(active, flow)
		}
	}

	return active, nil
}

func (p *Persistence) FlowByID(_ context.Context, id string) (*models.AutomationFlow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.read(id)
}

// SaveFlow creates or replaces a flow, assigning an id and timestamps when
// missing. Replacing keeps the stored execution count; only
// IncrementExecutionCount changes it.
func (p *Persistence) SaveFlow(_ context.Context, flow *models.AutomationFlow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	} else {
		existing, err := p.read(flow.ID)

		switch {
		case err == nil:
			flow.ExecutionCount = existing.ExecutionCount
		case !persistence.IsFlowNotFound(err):
			return err
		}
	}

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	return p.write(flow)
}

func (p *Persistence) DeleteFlow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.flowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewFlowError("DeleteFlow", id, persistence.ErrFlowNotFound)
		}

		return persistence.NewFlowError("DeleteFlow", id, err)
	}

	return nil
}

func (p *Persistence) IncrementExecutionCount(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	flow, err := p.read(id)
	if err != nil {
		return err
	}

	flow.ExecutionCount++

	return p.write(flow)
}

func (p *Persistence) flowPath(id string) string {
	return filepath.Clean(path.Join(p.root, "flows", filepath.Base(id)+".json"))
}

func (p *Persistence) read(id string) (*models.AutomationFlow, error) {
	body, err := os.ReadFile(p.flowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewFlowError("FlowByID", id, persistence.ErrFlowNotFound)
		}

		return nil, persistence.Unavailable("FlowByID", err)
	}

	var flow models.AutomationFlow

	err = json.Unmarshal(body, &flow)
	if err != nil {
		return nil, persistence.Unavailable("FlowByID", fmt.Errorf("failed to unmarshal flow %s: %w", id, err))
	}

	return &flow, nil
}

func (p *Persistence) readAll() ([]*models.AutomationFlow, error) {
	root := os.DirFS(path.Join(p.root, "flows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list flow files: %w", err)
	}

	flows := make([]*models.AutomationFlow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		flow, err := p.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			if persistence.IsFlowNotFound(err) {
				continue
			}

			return nil, err
		}

		flows = append(flows, flow)
	}

	sortStoreOrder(flows)

	return flows, nil
}

func (p *Persistence) write(flow *models.AutomationFlow) error {
	err := os.MkdirAll(path.Join(p.root, "flows"), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow %s: %w", flow.ID, err)
	}

	target := p.flowPath(flow.ID)
	tmp := target + ".tmp"

	err = os.WriteFile(tmp, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write flow %s: %w", flow.ID, err)
	}

	err = os.Rename(tmp, target)
	if err != nil {
		return fmt.Errorf("failed to write flow %s: %w", flow.ID, err)
	}

	return nil
}

// Store order is creation order, ties broken by id.
func sortStoreOrder(flows []*models.AutomationFlow) {
	sort.SliceStable(flows, func(i, j int) bool {
		if !flows[i].CreatedAt.Equal(flows[j].CreatedAt) {
			return flows[i].CreatedAt.Before(flows[j].CreatedAt)
		}

		return flows[i].ID < flows[j].ID
	})
}
