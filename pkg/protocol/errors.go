package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNodeType indicates a flow references a node type nobody registered.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrUnknownCapability indicates an action asked for a capability the dispatcher lacks.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrInvalidNodeConfig indicates a node config does not satisfy its schema.
	ErrInvalidNodeConfig = errors.New("invalid node config")

	// ErrRoleMismatch indicates a node type was used with the wrong role.
	ErrRoleMismatch = errors.New("node role does not match node type")
)

// ConfigurationError is a programmer or authoring mistake, never a runtime condition.
type ConfigurationError struct {
	NodeType string
	NodeID   string
	Detail   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	target := e.NodeType
	if e.NodeID != "" {
		target = fmt.Sprintf("%s (node %s)", e.NodeType, e.NodeID)
	}

	if e.Detail != "" {
		return fmt.Sprintf("configuration error for %s: %v: %s", target, e.Err, e.Detail)
	}

	return fmt.Sprintf("configuration error for %s: %v", target, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError

	return errors.As(err, &configErr)
}
