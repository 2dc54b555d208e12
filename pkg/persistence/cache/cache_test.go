package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/persistence/cache"
	"github.com/dukex/instaflow/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeFlow(id string) *models.AutomationFlow {
	return &models.AutomationFlow{
		ID:       id,
		Name:     "Flow " + id,
		IsActive: true,
		Nodes:    []*models.FlowNode{{ID: "n1", Role: models.NodeRoleTrigger, NodeType: "new-message"}},
	}
}

func TestPersistence_CachesActiveFlows(t *testing.T) {
	ctx := context.Background()
	inner := file.NewPersistence(t.TempDir())
	store := cache.NewPersistence(inner, time.Minute)

	require.NoError(t, store.SaveFlow(ctx, activeFlow("f1")))

	flows, err := store.ActiveFlows(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)

	// Written behind the cache's back: not visible until invalidated.
	require.NoError(t, inner.SaveFlow(ctx, activeFlow("f2")))

	flows, err = store.ActiveFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 1)

	store.Invalidate()

	flows, err = store.ActiveFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 2)
}

func TestPersistence_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	store := cache.NewPersistence(file.NewPersistence(t.TempDir()), time.Minute)

	require.NoError(t, store.SaveFlow(ctx, activeFlow("f1")))

	_, err := store.ActiveFlows(ctx)
	require.NoError(t, err)

	require.NoError(t, store.SaveFlow(ctx, activeFlow("f2")))

	flows, err := store.ActiveFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 2)

	require.NoError(t, store.DeleteFlow(ctx, "f1"))

	flows, err = store.ActiveFlows(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "f2", flows[0].ID)
}

func TestPersistence_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := cache.NewPersistence(file.NewPersistence(t.TempDir()), time.Minute)

	require.NoError(t, store.SaveFlow(ctx, activeFlow("f1")))

	first, err := store.ActiveFlows(ctx)
	require.NoError(t, err)

	first[0].Name = "mutated"

	second, err := store.ActiveFlows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Flow f1", second[0].Name)
}

// slowStore runs onRead after loading the active flows and before returning them.
type slowStore struct {
	*file.Persistence

	onRead func()
}

func (s *slowStore) ActiveFlows(ctx context.Context) ([]*models.AutomationFlow, error) {
	flows, err := s.Persistence.ActiveFlows(ctx)
	if s.onRead != nil {
		onRead := s.onRead
		s.onRead = nil
		onRead()
	}

	return flows, err
}

func TestPersistence_DoesNotCacheSnapshotLoadedAcrossWrite(t *testing.T) {
	ctx := context.Background()
	inner := &slowStore{Persistence: file.NewPersistence(t.TempDir())}
	store := cache.NewPersistence(inner, time.Minute)

	require.NoError(t, store.SaveFlow(ctx, activeFlow("f1")))

	deactivated := activeFlow("f1")
	deactivated.IsActive = false
	inner.onRead = func() {
		require.NoError(t, store.SaveFlow(ctx, deactivated))
	}

	flows, err := store.ActiveFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 1)

	flows, err = store.ActiveFlows(ctx)
	require.NoError(t, err)
	assert.Empty(t, flows)
}
