// Package cache wraps a flow store with a short-lived snapshot of the active flows.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/persistence"
	gocache "github.com/patrickmn/go-cache"
)

const activeFlowsKey = "active_flows"

// Persistence serves ActiveFlows from memory for up to ttl. Every write
// through it drops the snapshot, so editor changes are visible on the next
// read. Writes made directly on the inner store wait for the ttl or
// Invalidate.
type Persistence struct {
	persistence.Persistence

	cache *gocache.Cache

	// generation counts writes; a snapshot loaded across a write is not kept.
	mu         sync.Mutex
	generation uint64
}

func NewPersistence(inner persistence.Persistence, ttl time.Duration) *Persistence {
	return &Persistence{
		Persistence: inner,
		cache:       gocache.New(ttl, 2*ttl),
	}
}

// ActiveFlows returns deep copies so callers never share cached flows.
func (p *Persistence) ActiveFlows(ctx context.Context) ([]*models.AutomationFlow, error) {
	if cached, found := p.cache.Get(activeFlowsKey); found {
		return cloneAll(cached.([]*models.AutomationFlow)), nil
	}

	p.mu.Lock()
	generation := p.generation
	p.mu.Unlock()

	flows, err := p.Persistence.ActiveFlows(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.generation == generation {
		p.cache.SetDefault(activeFlowsKey, cloneAll(flows))
	}
	p.mu.Unlock()

	return flows, nil
}

func (p *Persistence) SaveFlow(ctx context.Context, flow *models.AutomationFlow) error {
	defer p.Invalidate()

	return p.Persistence.SaveFlow(ctx, flow)
}

func (p *Persistence) DeleteFlow(ctx context.Context, id string) error {
	defer p.Invalidate()

	return p.Persistence.DeleteFlow(ctx, id)
}

// Invalidate drops the cached snapshot and any snapshot still being loaded.
func (p *Persistence) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.cache.Delete(activeFlowsKey)
}

func cloneAll(flows []*models.AutomationFlow) []*models.AutomationFlow {
	out := make([]*models.AutomationFlow, len(flows))
	for i, flow := range flows {
		out[i] = flow.Clone()
	}

	return out
}
