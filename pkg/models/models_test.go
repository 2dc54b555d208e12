package models_test

import (
	"testing"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlow() *models.AutomationFlow {
	return &models.AutomationFlow{
		ID:       "f1",
		Name:     "Price replies",
		IsActive: true,
		Nodes: []*models.FlowNode{
			{ID: "n1", Role: models.NodeRoleTrigger, NodeType: "new-message"},
			{ID: "n2", Role: models.NodeRoleCondition, NodeType: "keyword-filter", Config: map[string]any{
				"keywords": []any{"price"},
				"nested":   map[string]any{"a": "b"},
			}},
			{ID: "n3", Role: models.NodeRoleAction, NodeType: "send-dm"},
		},
		Edges: []*models.FlowEdge{
			{ID: "e1", Source: "n1", Target: "n2"},
			{ID: "e2", Source: "n2", Target: "n3"},
		},
	}
}

func TestAutomationFlow_TriggerNode(t *testing.T) {
	flow := sampleFlow()

	trigger := flow.TriggerNode()
	require.NotNil(t, trigger)
	assert.Equal(t, "n1", trigger.ID)

	flow.Nodes = flow.Nodes[1:]
	assert.Nil(t, flow.TriggerNode())
}

func TestAutomationFlow_OutgoingEdgesKeepOrder(t *testing.T) {
	flow := sampleFlow()
	flow.Edges = append(flow.Edges, &models.FlowEdge{ID: "e3", Source: "n1", Target: "n3"})

	edges := flow.OutgoingEdges("n1")
	require.Len(t, edges, 2)
	assert.Equal(t, "e1", edges[0].ID)
	assert.Equal(t, "e3", edges[1].ID)
	assert.Empty(t, flow.OutgoingEdges("n3"))
}

func TestAutomationFlow_CloneIsDeep(t *testing.T) {
	flow := sampleFlow()
	clone := flow.Clone()

	clone.Name = "changed"
	clone.Nodes[1].Config["keywords"].([]any)[0] = "changed"
	clone.Nodes[1].Config["nested"].(map[string]any)["a"] = "changed"
	clone.Edges[0].Target = "n3"

	assert.Equal(t, "Price replies", flow.Name)
	assert.Equal(t, "price", flow.Nodes[1].Config["keywords"].([]any)[0])
	assert.Equal(t, "b", flow.Nodes[1].Config["nested"].(map[string]any)["a"])
	assert.Equal(t, "n2", flow.Edges[0].Target)
}

func TestExecutionSummary_Add(t *testing.T) {
	var summary models.ExecutionSummary

	summary.Add(models.ExecutionRecord{Status: models.ExecutionStatusSuccess})
	summary.Add(models.ExecutionRecord{Status: models.ExecutionStatusPartialFailure})
	summary.Add(models.ExecutionRecord{Status: models.ExecutionStatusError})
	summary.Add(models.ExecutionRecord{Status: models.ExecutionStatusError})

	assert.Equal(t, models.ExecutionSummary{Matched: 4, Succeeded: 1, PartiallyFailed: 1, Failed: 2}, summary)
}

func TestEventKind_Valid(t *testing.T) {
	assert.True(t, models.EventKindNewMention.Valid())
	assert.True(t, models.EventKindScheduleTick.Valid())
	assert.False(t, models.EventKind("story_reply").Valid())
}
