package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

// NodeValidator checks a single node against its registered type.
type NodeValidator interface {
	ValidateNode(node *models.FlowNode) error
}

// FlowValidator enforces the structural rules every saved flow must satisfy:
// exactly one trigger, edges between known nodes, no edge into the trigger,
// an acyclic graph and node configs accepted by their node types.
type FlowValidator struct {
	validate *validator.Validate
	nodes    NodeValidator
}

func NewFlowValidator(nodes NodeValidator) *FlowValidator {
	return &FlowValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		nodes:    nodes,
	}
}

func (v *FlowValidator) Validate(flow *models.AutomationFlow) error {
	const op = "ValidateFlow"

	if flow == nil {
		return NewValidationError(op, "FLOW_NIL", "", ErrFlowNil)
	}

	if len(flow.Nodes) == 0 {
		return NewValidationError(op, "NODES_REQUIRED", "", ErrNodesRequired)
	}

	err := v.validate.Struct(flow)
	if err != nil {
		return NewValidationError(op, "INVALID_FLOW", describeValidation(err), ErrInvalidRequest)
	}

	nodes := make(map[string]*models.FlowNode, len(flow.Nodes))
	triggerID := ""

	for _, node := range flow.Nodes {
		if node == nil {
			return NewValidationError(op, "INVALID_FLOW", "null node", ErrInvalidRequest)
		}

		if _, exists := nodes[node.ID]; exists {
			return NewValidationError(op, "DUPLICATE_NODE", "duplicate node id "+node.ID, ErrDuplicateNodeID)
		}

		nodes[node.ID] = node

		if node.IsTrigger() {
			if triggerID != "" {
				return NewValidationError(op, "MULTIPLE_TRIGGERS", "", ErrMultipleTriggers)
			}

			triggerID = node.ID
		}

		if v.nodes != nil {
			err := v.nodes.ValidateNode(node)
			if err != nil {
				return NewValidationError(op, "INVALID_NODE", err.Error(), fmt.Errorf("%w: %w", ErrInvalidNode, err))
			}
		}
	}

	if triggerID == "" {
		return NewValidationError(op, "TRIGGER_REQUIRED", "", ErrTriggerNodeRequired)
	}

	for _, edge := range flow.Edges {
		if edge == nil {
			return NewValidationError(op, "INVALID_FLOW", "null edge", ErrInvalidRequest)
		}

		if nodes[edge.Source] == nil || nodes[edge.Target] == nil {
			return NewValidationError(op, "INVALID_EDGE",
				fmt.Sprintf("edge %s connects %s to %s", edge.ID, edge.Source, edge.Target), ErrInvalidEdge)
		}

		if edge.Target == triggerID {
			return NewValidationError(op, "EDGE_INTO_TRIGGER", "edge "+edge.ID, ErrEdgeIntoTrigger)
		}
	}

	if cycle := findCycle(flow); cycle != nil {
		return NewValidationError(op, "CYCLE_DETECTED", "cycle through "+strings.Join(cycle, " -> "), ErrCycleDetected)
	}

	return nil
}

// findCycle returns the node ids of one cycle, or nil when the graph is acyclic.
func findCycle(flow *models.AutomationFlow) []string {
	const (
		unvisited = iota
		inProgress
		done
	)

	state := make(map[string]int, len(flow.Nodes))
	path := make([]string, 0, len(flow.Nodes))

	var visit func(id string) []string

	visit = func(id string) []string {
		state[id] = inProgress
		path = append(path, id)

		for _, edge := range flow.OutgoingEdges(id) {
			switch state[edge.Target] {
			case inProgress:
				for i, nodeID := range path {
					if nodeID == edge.Target {
						return append(append([]string(nil), path[i:]...), edge.Target)
					}
				}
			case unvisited:
				if cycle := visit(edge.Target); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		state[id] = done

		return nil
	}

	for _, node := range flow.Nodes {
		if state[node.ID] == unvisited {
			if cycle := visit(node.ID); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return strings.Join(parts, "; ")
}
