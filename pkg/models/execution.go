package models

import "time"

// ExecutionStatus is the aggregated outcome of one flow execution.
type ExecutionStatus string

const (
	ExecutionStatusSuccess        ExecutionStatus = "success"
	ExecutionStatusPartialFailure ExecutionStatus = "partial_failure"
	ExecutionStatusError          ExecutionStatus = "error"
)

// ActionOutcome is the result of one action node within an execution.
type ActionOutcome struct {
	NodeID     string `json:"node_id"`
	NodeType   string `json:"node_type"`
	Capability string `json:"capability,omitempty"`
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
}

// ExecutionRecord is the persisted result of one flow execution.
type ExecutionRecord struct {
	ID          string          `json:"id"`
	FlowID      string          `json:"flow_id"`
	FlowName    string          `json:"flow_name"`
	TriggerKind EventKind       `json:"trigger_kind"`
	Status      ExecutionStatus `json:"status"`
	Details     string          `json:"details"`
	Actions     []ActionOutcome `json:"actions"`
	StartedAt   time.Time       `json:"started_at"`
	DurationMs  int64           `json:"duration_ms"`
}

// ExecutionSummary aggregates the executions triggered by one inbound payload.
type ExecutionSummary struct {
	Events          int `json:"events"`
	Matched         int `json:"matched"`
	Succeeded       int `json:"succeeded"`
	PartiallyFailed int `json:"partially_failed"`
	Failed          int `json:"failed"`
}

// Add counts one finished execution.
func (s *ExecutionSummary) Add(record ExecutionRecord) {
	s.Matched++

	switch record.Status {
	case ExecutionStatusSuccess:
		s.Succeeded++
	case ExecutionStatusPartialFailure:
		s.PartiallyFailed++
	case ExecutionStatusError:
		s.Failed++
	}
}

// Merge adds the counts of other into s.
func (s *ExecutionSummary) Merge(other ExecutionSummary) {
	s.Events += other.Events
	s.Matched += other.Matched
	s.Succeeded += other.Succeeded
	s.PartiallyFailed += other.PartiallyFailed
	s.Failed += other.Failed
}

// ExecutionContext is the per-run state visible to node strategies.
type ExecutionContext struct {
	ID        string         `json:"id"`
	FlowID    string         `json:"flow_id"`
	FlowName  string         `json:"flow_name"`
	Event     TriggerEvent   `json:"event"`
	Variables map[string]any `json:"variables,omitempty"`
}

// NewExecutionContext creates a context with empty variables.
func NewExecutionContext(id string, flow *AutomationFlow, event TriggerEvent) *ExecutionContext {
	return &ExecutionContext{
		ID:        id,
		FlowID:    flow.ID,
		FlowName:  flow.Name,
		Event:     event,
		Variables: make(map[string]any),
	}
}
