package userfilter

import (
	"context"
	"strings"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
)

// UserFilter passes events from included users and blocks excluded ones.
// An empty include list allows everyone not excluded.
type UserFilter struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

func NewUserFilter(config map[string]any) *UserFilter {
	return &UserFilter{
		include: toSet(nodeconfig.StringList(config, "include_users")),
		exclude: toSet(nodeconfig.StringList(config, "exclude_users")),
	}
}

func (u *UserFilter) Evaluate(_ context.Context, execCtx *models.ExecutionContext) (bool, error) {
	candidates := identities(execCtx.Event)

	for _, candidate := range candidates {
		if _, blocked := u.exclude[candidate]; blocked {
			return false, nil
		}
	}

	if len(u.include) == 0 {
		return true, nil
	}

	for _, candidate := range candidates {
		if _, allowed := u.include[candidate]; allowed {
			return true, nil
		}
	}

	return false, nil
}

func identities(event models.TriggerEvent) []string {
	out := make([]string, 0, 2)

	if event.SourceUserID != "" {
		out = append(out, normalize(event.SourceUserID))
	}

	if event.SourceUsername != "" {
		out = append(out, normalize(event.SourceUsername))
	}

	return out
}

func normalize(identity string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(identity), "@"))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[normalize(value)] = struct{}{}
	}

	return set
}
