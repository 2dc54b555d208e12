package trigger_test

import (
	"testing"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/trigger"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories_MapToEventKinds(t *testing.T) {
	kinds := map[string]models.EventKind{}
	for _, factory := range trigger.Factories() {
		assert.Equal(t, models.NodeRoleTrigger, factory.Role())
		assert.NotEmpty(t, factory.Name())
		assert.NotEmpty(t, factory.Schema())
		kinds[factory.ID()] = factory.EventKind()
	}

	assert.Equal(t, map[string]models.EventKind{
		"new-message":     models.EventKindNewMessage,
		"new-comment":     models.EventKindNewComment,
		"new-follower":    models.EventKindNewFollower,
		"mention-trigger": models.EventKindNewMention,
		"schedule":        models.EventKindScheduleTick,
	}, kinds)
}

func TestScheduleTrigger_ValidateConfig(t *testing.T) {
	var schedule protocol.ConfigValidator

	for _, factory := range trigger.Factories() {
		if v, ok := factory.(protocol.ConfigValidator); ok {
			schedule = v
		}
	}

	require.NotNil(t, schedule)

	assert.NoError(t, schedule.ValidateConfig(map[string]any{"cron": "0 9 * * 1-5"}))
	assert.NoError(t, schedule.ValidateConfig(map[string]any{"cron": "@every 30m", "timezone": "America/Sao_Paulo"}))
	assert.Error(t, schedule.ValidateConfig(map[string]any{}))
	assert.Error(t, schedule.ValidateConfig(map[string]any{"cron": "not a cron"}))
	assert.Error(t, schedule.ValidateConfig(map[string]any{"cron": "@hourly", "timezone": "Mars/Olympus"}))
}

func TestParseSchedule_Next(t *testing.T) {
	schedule, err := trigger.ParseSchedule(map[string]any{"cron": "30 9 * * *", "timezone": "UTC"})
	require.NoError(t, err)

	from := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), schedule.Next(from))
}
