package dispatcher_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/instaflow/pkg/dispatcher"
	"github.com/dukex/instaflow/pkg/mocks"
	"github.com/dukex/instaflow/pkg/platform"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type recordingClient struct {
	messages []string
	replies  []string
	err      error
}

func (c *recordingClient) SendMessage(_ context.Context, recipientID, text string) error {
	c.messages = append(c.messages, recipientID+":"+text)

	return c.err
}

func (c *recordingClient) ReplyToComment(_ context.Context, commentID, text string) error {
	c.replies = append(c.replies, commentID+":"+text)

	return c.err
}

type recordingCaller struct {
	urls []string
}

func (c *recordingCaller) Call(_ context.Context, _ string, url string, _ map[string]string, _ []byte) error {
	c.urls = append(c.urls, url)

	return nil
}

func TestDispatch_RoutesCapabilities(t *testing.T) {
	client := &recordingClient{}
	caller := &recordingCaller{}
	d := dispatcher.NewPlatformDispatcher(testLogger(), client, caller)

	ctx := context.Background()

	assert.Equal(t, dispatcher.Ok(), d.Dispatch(ctx, protocol.ActionRequest{Capability: protocol.CapabilitySendMessage, RecipientID: "u1", Text: "hi"}))
	assert.Equal(t, dispatcher.Ok(), d.Dispatch(ctx, protocol.ActionRequest{Capability: protocol.CapabilityReplyToComment, CommentID: "c1", Text: "thanks"}))
	assert.Equal(t, dispatcher.Ok(), d.Dispatch(ctx, protocol.ActionRequest{Capability: protocol.CapabilityCallWebhook, URL: "http://hook"}))

	assert.Equal(t, []string{"u1:hi"}, client.messages)
	assert.Equal(t, []string{"c1:thanks"}, client.replies)
	assert.Equal(t, []string{"http://hook"}, caller.urls)
	assert.Len(t, d.Capabilities(), 3)
}

func TestDispatch_RemoteFailureIsValue(t *testing.T) {
	client := &recordingClient{err: &platform.Failure{Reason: platform.ReasonRateLimited, StatusCode: 429}}
	d := dispatcher.NewPlatformDispatcher(testLogger(), client, &recordingCaller{})

	result := d.Dispatch(context.Background(), protocol.ActionRequest{Capability: protocol.CapabilitySendMessage, RecipientID: "u1"})

	assert.False(t, result.OK)
	assert.Equal(t, platform.ReasonRateLimited, result.Reason)
	assert.Equal(t, "failed: rate_limited", result.String())
}

func TestDispatch_PlainErrorReason(t *testing.T) {
	d := dispatcher.New(testLogger(), dispatcher.WithHandler(protocol.CapabilitySendMessage, func(context.Context, protocol.ActionRequest) error {
		return errors.New("boom")
	}))

	result := d.Dispatch(context.Background(), protocol.ActionRequest{Capability: protocol.CapabilitySendMessage})
	assert.Equal(t, dispatcher.Failed("boom"), result)
}

func TestDispatch_Timeout(t *testing.T) {
	d := dispatcher.New(testLogger(),
		dispatcher.WithTimeout(20*time.Millisecond),
		dispatcher.WithHandler(protocol.CapabilitySendMessage, func(ctx context.Context, _ protocol.ActionRequest) error {
			<-ctx.Done()

			return ctx.Err()
		}))

	result := d.Dispatch(context.Background(), protocol.ActionRequest{Capability: protocol.CapabilitySendMessage})
	assert.Equal(t, dispatcher.Failed(dispatcher.ReasonTimeout), result)
}

func TestDispatch_DetachedFromCallerCancellation(t *testing.T) {
	d := dispatcher.New(testLogger(), dispatcher.WithHandler(protocol.CapabilitySendMessage, func(ctx context.Context, _ protocol.ActionRequest) error {
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, dispatcher.Ok(), d.Dispatch(ctx, protocol.ActionRequest{Capability: protocol.CapabilitySendMessage}))
}

func TestDispatch_UnknownCapability(t *testing.T) {
	request := protocol.ActionRequest{Capability: "post_story", NodeType: "story"}

	production := dispatcher.New(testLogger())
	result := production.Dispatch(context.Background(), request)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "unknown capability")

	development := dispatcher.New(testLogger(), dispatcher.WithStrict(true))

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)

		err, ok := recovered.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, protocol.ErrUnknownCapability)
	}()

	development.Dispatch(context.Background(), request)
}

func TestDispatch_ReportsPlatformFailureReason(t *testing.T) {
	client := &mocks.MockPlatformClient{}
	client.On("ReplyToComment", mock.Anything, "c1", "thanks").
		Return(&platform.Failure{StatusCode: 429, Reason: platform.ReasonRateLimited}).Once()

	d := dispatcher.NewPlatformDispatcher(testLogger(), client, &recordingCaller{})

	result := d.Dispatch(context.Background(), protocol.ActionRequest{
		Capability: protocol.CapabilityReplyToComment,
		CommentID:  "c1",
		Text:       "thanks",
	})

	assert.False(t, result.OK)
	assert.Equal(t, platform.ReasonRateLimited, result.Reason)
	client.AssertExpectations(t)
}
