// Package trigger provides the trigger node types that root every flow.
package trigger

import (
	"fmt"
	"time"

	"github.com/dukex/instaflow/pkg/matcher"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/robfig/cron/v3"
)

// TriggerNodeFactory describes an event trigger. Triggers carry no behavior
// at execution time; the matcher routes events to them.
type TriggerNodeFactory struct {
	id          string
	name        string
	description string
	kind        models.EventKind
	schema      map[string]any
}

func (f *TriggerNodeFactory) ID() string {
	return f.id
}

func (f *TriggerNodeFactory) Name() string {
	return f.name
}

func (f *TriggerNodeFactory) Description() string {
	return f.description
}

func (f *TriggerNodeFactory) Role() models.NodeRole {
	return models.NodeRoleTrigger
}

func (f *TriggerNodeFactory) EventKind() models.EventKind {
	return f.kind
}

func (f *TriggerNodeFactory) Schema() map[string]any {
	return f.schema
}

func newTriggerFactory(id, name, description string, schema map[string]any) *TriggerNodeFactory {
	kind, ok := matcher.KindForTrigger(id)
	if !ok {
		panic("trigger " + id + " has no event kind mapping")
	}

	if schema == nil {
		schema = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	return &TriggerNodeFactory{id: id, name: name, description: description, kind: kind, schema: schema}
}

// ScheduleTriggerFactory fires flows on a cron expression.
type ScheduleTriggerFactory struct {
	*TriggerNodeFactory
}

// ValidateConfig checks the cron expression and timezone.
func (f *ScheduleTriggerFactory) ValidateConfig(config map[string]any) error {
	_, err := ParseSchedule(config)

	return err
}

// ParseSchedule parses the cron expression of a schedule trigger config,
// applying the optional timezone.
func ParseSchedule(config map[string]any) (cron.Schedule, error) {
	expression := nodeconfig.String(config, "cron")
	if expression == "" {
		return nil, fmt.Errorf("cron expression is required")
	}

	if timezone := nodeconfig.String(config, "timezone"); timezone != "" {
		_, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}

		expression = "CRON_TZ=" + timezone + " " + expression
	}

	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}

	return schedule, nil
}

// ScheduleSignature identifies a schedule config; equal signatures fire at
// the same times.
func ScheduleSignature(config map[string]any) string {
	expression := nodeconfig.String(config, "cron")

	if timezone := nodeconfig.String(config, "timezone"); timezone != "" {
		return "CRON_TZ=" + timezone + " " + expression
	}

	return expression
}

// Factories returns all built-in trigger factories.
func Factories() []protocol.TriggerFactory {
	return []protocol.TriggerFactory{
		newTriggerFactory(matcher.TriggerNewMessage, "New Message", "Fires when someone sends a direct message.", nil),
		newTriggerFactory(matcher.TriggerNewComment, "New Comment", "Fires when someone comments on a post.", nil),
		newTriggerFactory(matcher.TriggerNewFollower, "New Follower", "Fires when someone follows the account.", nil),
		newTriggerFactory(matcher.TriggerMention, "Mention", "Fires when the account is mentioned in a comment or caption.", nil),
		&ScheduleTriggerFactory{newTriggerFactory(matcher.TriggerSchedule, "Schedule", "Fires the flow on a cron schedule.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cron": map[string]any{
					"type":        "string",
					"description": "Standard 5-field cron expression or descriptor such as @hourly",
					"examples":    []string{"0 9 * * 1-5", "@every 30m"},
				},
				"timezone": map[string]any{
					"type":        "string",
					"description": "IANA timezone the expression is evaluated in",
				},
			},
			"required": []string{"cron"},
		})},
	}
}
