// Package scheduler fires flows whose trigger is a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukex/instaflow/pkg/engine"
	"github.com/dukex/instaflow/pkg/matcher"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/trigger"
	"github.com/dukex/instaflow/pkg/persistence"
	"github.com/robfig/cron/v3"
)

// DefaultReloadInterval is how often active flows are re-read for schedule changes.
const DefaultReloadInterval = time.Minute

type FlowSource interface {
	ActiveFlows(ctx context.Context) ([]*models.AutomationFlow, error)
	FlowByID(ctx context.Context, id string) (*models.AutomationFlow, error)
}

type FlowRunner interface {
	RunFlow(ctx context.Context, flowID string, event models.TriggerEvent) (models.ExecutionRecord, error)
}

type entry struct {
	id        cron.EntryID
	signature string
}

type Scheduler struct {
	logger   *slog.Logger
	flows    FlowSource
	runner   FlowRunner
	cron     *cron.Cron
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

type Option func(*Scheduler)

func WithReloadInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = interval
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func New(logger *slog.Logger, flows FlowSource, runner FlowRunner, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:   logger.With("module", "scheduler"),
		flows:    flows,
		runner:   runner,
		cron:     cron.New(),
		interval: DefaultReloadInterval,
		now:      time.Now,
		entries:  make(map[string]entry),
		ctx:      context.Background(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the schedules, starts the cron runner and keeps reloading
// schedules every interval until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()

		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.started = true
	s.mu.Unlock()

	err := s.Sync(s.ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Initial schedule load failed", "error", err)
	}

	s.cron.Start()

	go s.reload()

	s.logger.InfoContext(ctx, "Scheduler started", "reload_interval", s.interval)

	return nil
}

// Stop stops reloading and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()

		return nil
	}

	s.started = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done

	select {
	case <-s.cron.Stop().Done():
		s.logger.InfoContext(ctx, "Scheduler stopped")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) reload() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			err := s.Sync(s.ctx)
			if err != nil {
				s.logger.ErrorContext(s.ctx, "Failed to reload schedules", "error", err)
			}
		}
	}
}

// Sync reconciles cron entries with the active flows that have a schedule
// trigger. Flows with an invalid cron expression are skipped.
func (s *Scheduler) Sync(ctx context.Context) error {
	flows, err := s.flows.ActiveFlows(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(flows))

	for _, flow := range flows {
		node := flow.TriggerNode()
		if node == nil || node.NodeType != matcher.TriggerSchedule {
			continue
		}

		signature := trigger.ScheduleSignature(node.Config)
		seen[flow.ID] = true

		current, ok := s.entries[flow.ID]
		if ok && current.signature == signature {
			continue
		}

		if ok {
			s.cron.Remove(current.id)
			delete(s.entries, flow.ID)
		}

		schedule, err := trigger.ParseSchedule(node.Config)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping flow with invalid schedule", "flow_id", flow.ID, "error", err)

			continue
		}

		flowID := flow.ID
		id := s.cron.Schedule(schedule, cron.FuncJob(func() { s.fire(flowID) }))
		s.entries[flowID] = entry{id: id, signature: signature}

		s.logger.InfoContext(ctx, "Scheduled flow", "flow_id", flowID, "schedule", signature)
	}

	for flowID, current := range s.entries {
		if seen[flowID] {
			continue
		}

		s.cron.Remove(current.id)
		delete(s.entries, flowID)

		s.logger.InfoContext(ctx, "Unscheduled flow", "flow_id", flowID)
	}

	return nil
}

// ScheduledFlows returns the ids of the flows with a cron entry, sorted.
func (s *Scheduler) ScheduledFlows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for flowID := range s.entries {
		ids = append(ids, flowID)
	}

	slices.Sort(ids)

	return ids
}

func (s *Scheduler) fire(flowID string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	// Entries lag behind the store until the next Sync.
	flow, err := s.flows.FlowByID(ctx, flowID)
	switch {
	case persistence.IsFlowNotFound(err):
		s.logger.DebugContext(ctx, "Skipping scheduled run of deleted flow", "flow_id", flowID)

		return
	case err != nil:
		s.logger.ErrorContext(ctx, "Failed to load scheduled flow", "flow_id", flowID, "error", err)

		return
	case !flow.IsActive:
		s.logger.DebugContext(ctx, "Skipping scheduled run of inactive flow", "flow_id", flowID)

		return
	}

	event := models.TriggerEvent{
		Kind:       models.EventKindScheduleTick,
		OccurredAt: s.now().UTC(),
	}

	record, err := s.runner.RunFlow(ctx, flowID, event)
	if err != nil {
		if errors.Is(err, engine.ErrShuttingDown) {
			s.logger.InfoContext(ctx, "Skipping scheduled run during shutdown", "flow_id", flowID)

			return
		}

		s.logger.ErrorContext(ctx, "Scheduled run failed", "flow_id", flowID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled run finished",
		"flow_id", flowID,
		"execution_id", record.ID,
		"status", record.Status)
}
