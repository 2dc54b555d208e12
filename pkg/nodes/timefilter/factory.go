// Package timefilter provides the time-filter condition node.
package timefilter

import (
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
)

type TimeFilterFactory struct {
	now func() time.Time
}

func (f *TimeFilterFactory) Create(config map[string]any) (protocol.Condition, error) {
	return NewTimeFilter(config, f.now)
}

// ValidateConfig rejects configs NewTimeFilter cannot build.
func (f *TimeFilterFactory) ValidateConfig(config map[string]any) error {
	_, err := NewTimeFilter(config, f.now)

	return err
}

func (f *TimeFilterFactory) ID() string {
	return "time-filter"
}

func (f *TimeFilterFactory) Name() string {
	return "Time Filter"
}

func (f *TimeFilterFactory) Description() string {
	return "Only continue during certain hours and weekdays, e.g. business hours."
}

func (f *TimeFilterFactory) Role() models.NodeRole {
	return models.NodeRoleCondition
}

func (f *TimeFilterFactory) Schema() map[string]any {
	hour := map[string]any{"type": "integer", "minimum": 0, "maximum": 23}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_hour": hour,
			"end_hour":   hour,
			"days": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}},
			},
			"timezone": map[string]any{"type": "string"},
		},
		"examples": []map[string]any{
			{"start_hour": 9, "end_hour": 18, "days": []string{"mon", "tue", "wed", "thu", "fri"}, "timezone": "Europe/Lisbon"},
		},
	}
}

func NewTimeFilterFactory() protocol.ConditionFactory {
	return &TimeFilterFactory{now: time.Now}
}
