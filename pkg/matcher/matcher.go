// Package matcher selects the automation flows whose trigger fits an event.
package matcher

import (
	"log/slog"

	"github.com/dukex/instaflow/pkg/models"
)

// Trigger node types understood by the matcher.
const (
	TriggerNewMessage  = "new-message"
	TriggerNewComment  = "new-comment"
	TriggerNewFollower = "new-follower"
	TriggerMention     = "mention-trigger"
	TriggerSchedule    = "schedule"
)

var triggerKinds = map[string]models.EventKind{
	TriggerNewMessage:  models.EventKindNewMessage,
	TriggerNewComment:  models.EventKindNewComment,
	TriggerNewFollower: models.EventKindNewFollower,
	TriggerMention:     models.EventKindNewMention,
	TriggerSchedule:    models.EventKindScheduleTick,
}

// KindForTrigger returns the event kind a trigger node type listens to.
func KindForTrigger(nodeType string) (models.EventKind, bool) {
	kind, ok := triggerKinds[nodeType]

	return kind, ok
}

// TriggerMatcher filters flows by trigger kind. It never fails.
type TriggerMatcher struct {
	logger *slog.Logger
}

func NewTriggerMatcher(logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// Match returns the active flows whose trigger node maps to event.Kind,
// in the order they were given.
func (tm *TriggerMatcher) Match(event models.TriggerEvent, flows []*models.AutomationFlow) []*models.AutomationFlow {
	matched := make([]*models.AutomationFlow, 0)

	for _, flow := range flows {
		if !flow.IsActive {
			continue
		}

		trigger := flow.TriggerNode()
		if trigger == nil {
			tm.logger.Debug("Skipping flow without trigger node", "flow_id", flow.ID)

			continue
		}

		kind, ok := KindForTrigger(trigger.NodeType)
		if !ok || kind != event.Kind {
			continue
		}

		matched = append(matched, flow)
	}

	tm.logger.Debug("Completed trigger matching",
		"trigger_kind", event.Kind,
		"flows_count", len(flows),
		"matches_found", len(matched))

	return matched
}
