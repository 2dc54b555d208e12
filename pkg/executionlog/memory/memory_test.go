package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dukex/instaflow/pkg/executionlog/memory"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(i int) models.ExecutionRecord {
	return models.ExecutionRecord{ID: fmt.Sprintf("exec-%d", i), FlowID: "f1", Status: models.ExecutionStatusSuccess}
}

func TestStore_EvictsOldestBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(500)

	for i := 1; i <= 501; i++ {
		require.NoError(t, store.Append(ctx, record(i)))
	}

	records, err := store.Recent(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, records, 500)

	assert.Equal(t, "exec-501", records[0].ID)
	assert.Equal(t, "exec-2", records[499].ID)

	for _, r := range records {
		assert.NotEqual(t, "exec-1", r.ID)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(10)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(ctx, record(i)))
	}

	records, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "exec-3", records[0].ID)
	assert.Equal(t, "exec-2", records[1].ID)

	records, err = store.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_Empty(t *testing.T) {
	records, err := memory.NewStore(0).Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(500)

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, store.Append(ctx, record(i)))
		}()
	}

	wg.Wait()

	records, err := store.Recent(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, records, 100)
}
