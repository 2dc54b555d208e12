package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/instaflow/pkg/channels/gochannel"
	"github.com/dukex/instaflow/pkg/eventbus"
	"github.com/dukex/instaflow/pkg/events"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/normalizer"
	"github.com/dukex/instaflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu       sync.Mutex
	payloads [][]byte
	errs     []error
}

func (e *fakeEngine) HandleEvent(_ context.Context, raw []byte) (models.ExecutionSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.payloads = append(e.payloads, raw)

	if len(e.errs) > 0 {
		err := e.errs[0]
		e.errs = e.errs[1:]

		if err != nil {
			return models.ExecutionSummary{}, err
		}
	}

	return models.ExecutionSummary{Events: 1, Matched: 1, Succeeded: 1}, nil
}

func (e *fakeEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.payloads)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub := gochannel.CreateTestChannel(watermill.NopLogger{})

	bus := eventbus.NewWatermillEventBus(testLogger(), pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWorker_HandlesPublishedPayload(t *testing.T) {
	engine := &fakeEngine{}
	bus := newBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New("w1", testLogger(), engine, bus)
	require.NoError(t, w.Start(ctx))

	payload := []byte(`{"object":"instagram","entry":[]}`)
	require.NoError(t, bus.Publish(ctx, "webhook", events.NewWebhookReceived("evt-1", payload)))

	require.Eventually(t, func() bool { return engine.calls() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, payload, engine.payloads[0])
}

func TestWorker_DropsPayloadsTheEngineRejects(t *testing.T) {
	engine := &fakeEngine{errs: []error{&normalizer.NormalizationError{Err: normalizer.ErrMalformedPayload}}}
	w := New("w1", testLogger(), engine, nil)

	err := w.handleWebhookReceived(context.Background(), &events.WebhookReceived{Payload: []byte("not json")})

	assert.NoError(t, err)
	assert.Equal(t, 1, engine.calls())
}

func TestWorker_RetriesWhileStoreUnavailable(t *testing.T) {
	engine := &fakeEngine{errs: []error{
		persistence.Unavailable("active_flows", errors.New("connection refused")),
		nil,
	}}
	w := New("w1", testLogger(), engine, nil, WithRetry(3, time.Millisecond))

	err := w.handleWebhookReceived(context.Background(), &events.WebhookReceived{Payload: []byte("{}")})

	assert.NoError(t, err)
	assert.Equal(t, 2, engine.calls())
}

func TestWorker_ReturnsErrorWhenRetriesRunOut(t *testing.T) {
	unavailable := persistence.Unavailable("active_flows", errors.New("connection refused"))
	engine := &fakeEngine{errs: []error{unavailable, unavailable}}
	w := New("w1", testLogger(), engine, nil, WithRetry(2, time.Millisecond))

	err := w.handleWebhookReceived(context.Background(), &events.WebhookReceived{Payload: []byte("{}")})

	assert.ErrorIs(t, err, persistence.ErrStoreUnavailable)
	assert.Equal(t, 2, engine.calls())
}

func TestWorker_DoesNotRetryOtherErrors(t *testing.T) {
	engine := &fakeEngine{errs: []error{errors.New("shutting down")}}
	w := New("w1", testLogger(), engine, nil, WithRetry(3, time.Millisecond))

	err := w.handleWebhookReceived(context.Background(), &events.WebhookReceived{Payload: []byte("{}")})

	assert.Error(t, err)
	assert.Equal(t, 1, engine.calls())
}

func TestWorker_IgnoresUnexpectedEvents(t *testing.T) {
	engine := &fakeEngine{}
	w := New("w1", testLogger(), engine, nil)

	assert.NoError(t, w.handleWebhookReceived(context.Background(), &events.FlowExecuted{}))
	assert.Zero(t, engine.calls())
}
