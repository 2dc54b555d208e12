package cmd

import (
	"log/slog"

	"github.com/dukex/instaflow/pkg/registry"
)

// NewRegistry returns a registry holding every built-in node type.
func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes()

	return reg
}
