package models

import (
	"maps"
	"time"
)

// NodeRole represents what a node does inside a flow graph.
type NodeRole string

const (
	NodeRoleTrigger   NodeRole = "trigger"   // Root of the graph, maps to an event kind
	NodeRoleCondition NodeRole = "condition" // Predicate, prunes its branch when false
	NodeRoleAction    NodeRole = "action"    // Side effect through the dispatcher
)

// FlowNode is a node instance in an automation flow.
type FlowNode struct {
	ID        string         `json:"id"         validate:"required"`
	Role      NodeRole       `json:"role"       validate:"required,oneof=trigger condition action"`
	NodeType  string         `json:"node_type"  validate:"required"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

func (n *FlowNode) IsTrigger() bool {
	return n.Role == NodeRoleTrigger
}

func (n *FlowNode) IsCondition() bool {
	return n.Role == NodeRoleCondition
}

func (n *FlowNode) IsAction() bool {
	return n.Role == NodeRoleAction
}

// FlowEdge is a directed connection between two nodes of the same flow.
// The position of an edge in AutomationFlow.Edges is its traversal order.
type FlowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// AutomationFlow is a user-authored graph of nodes that reacts to one kind of event.
type AutomationFlow struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"            validate:"required,min=3"`
	Description    string      `json:"description"`
	IsActive       bool        `json:"is_active"`
	Nodes          []*FlowNode `json:"nodes"           validate:"required,min=1,dive"`
	Edges          []*FlowEdge `json:"edges"           validate:"dive"`
	ExecutionCount int64       `json:"execution_count"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TriggerNode returns the first trigger node of the flow, or nil.
func (f *AutomationFlow) TriggerNode() *FlowNode {
	for _, node := range f.Nodes {
		if node.IsTrigger() {
			return node
		}
	}

	return nil
}

// NodeByID returns the node with the given id, or nil.
func (f *AutomationFlow) NodeByID(id string) *FlowNode {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// OutgoingEdges returns the edges leaving nodeID in flow order.
func (f *AutomationFlow) OutgoingEdges(nodeID string) []*FlowEdge {
	edges := make([]*FlowEdge, 0)

	for _, edge := range f.Edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// Clone returns a deep copy so an execution works on a stable snapshot.
func (f *AutomationFlow) Clone() *AutomationFlow {
	if f == nil {
		return nil
	}

	clone := *f

	clone.Nodes = make([]*FlowNode, len(f.Nodes))
	for i, node := range f.Nodes {
		n := *node
		n.Config = cloneConfig(node.Config)
		clone.Nodes[i] = &n
	}

	clone.Edges = make([]*FlowEdge, len(f.Edges))
	for i, edge := range f.Edges {
		e := *edge
		clone.Edges[i] = &e
	}

	return &clone
}

func cloneConfig(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	out := maps.Clone(config)

	for key, value := range out {
		switch v := value.(type) {
		case map[string]any:
			out[key] = cloneConfig(v)
		case []any:
			out[key] = append([]any(nil), v...)
		case []string:
			out[key] = append([]string(nil), v...)
		}
	}

	return out
}
