package timefilter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// TimeFilter passes events that occurred inside an hour window on allowed days.
// A window whose end is before its start wraps past midnight.
type TimeFilter struct {
	startHour int
	endHour   int
	hasWindow bool
	days      map[time.Weekday]struct{}
	location  *time.Location
	now       func() time.Time
}

func NewTimeFilter(config map[string]any, now func() time.Time) (*TimeFilter, error) {
	filter := &TimeFilter{
		days:     make(map[time.Weekday]struct{}),
		location: time.UTC,
		now:      now,
	}

	start, hasStart := nodeconfig.Int(config, "start_hour")
	end, hasEnd := nodeconfig.Int(config, "end_hour")

	if hasStart != hasEnd {
		return nil, fmt.Errorf("start_hour and end_hour must be set together")
	}

	if hasStart {
		if start < 0 || start > 23 || end < 0 || end > 23 {
			return nil, fmt.Errorf("hours must be between 0 and 23")
		}

		filter.startHour, filter.endHour, filter.hasWindow = start, end, true
	}

	for _, day := range nodeconfig.StringList(config, "days") {
		weekday, ok := weekdays[strings.ToLower(day)[:min(3, len(day))]]
		if !ok {
			return nil, fmt.Errorf("invalid day %q", day)
		}

		filter.days[weekday] = struct{}{}
	}

	if timezone := nodeconfig.String(config, "timezone"); timezone != "" {
		location, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}

		filter.location = location
	}

	return filter, nil
}

// Evaluate uses the event time, or the current time for events without one.
func (f *TimeFilter) Evaluate(_ context.Context, execCtx *models.ExecutionContext) (bool, error) {
	at := execCtx.Event.OccurredAt
	if at.IsZero() {
		at = f.now()
	}

	at = at.In(f.location)

	if len(f.days) > 0 {
		if _, ok := f.days[at.Weekday()]; !ok {
			return false, nil
		}
	}

	if !f.hasWindow || f.startHour == f.endHour {
		return true, nil
	}

	hour := at.Hour()

	if f.startHour < f.endHour {
		return hour >= f.startHour && hour < f.endHour, nil
	}

	return hour >= f.startHour || hour < f.endHour, nil
}
