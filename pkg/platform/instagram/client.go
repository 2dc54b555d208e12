// Package instagram implements platform.Client against the Meta Graph API.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dukex/instaflow/pkg/platform"
)

const (
	DefaultBaseURL  = "https://graph.facebook.com/v18.0"
	defaultMaxTries = 3
	maxBodyBytes    = 64 << 10
)

// TokenSource yields the currently valid page access token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed token.
type StaticToken string

func (s StaticToken) Token(_ context.Context) (string, error) {
	if s == "" {
		return "", errors.New("access token is not configured")
	}

	return string(s), nil
}

type Client struct {
	logger          *slog.Logger
	baseURL         string
	tokens          TokenSource
	httpClient      *http.Client
	maxTries        uint
	initialInterval time.Duration
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetry sets how many attempts a transient failure gets and the first backoff interval.
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		c.initialInterval = initialInterval
	}
}

func NewClient(logger *slog.Logger, baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &Client{
		logger:          logger.With("module", "instagram_client"),
		baseURL:         strings.TrimRight(baseURL, "/"),
		tokens:          tokens,
		httpClient:      &http.Client{},
		maxTries:        defaultMaxTries,
		initialInterval: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

type sendMessageRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

// SendMessage sends a direct message to recipientID.
func (c *Client) SendMessage(ctx context.Context, recipientID, text string) error {
	var body sendMessageRequest
	body.Recipient.ID = recipientID
	body.Message.Text = text

	return c.post(ctx, "/me/messages", body)
}

// ReplyToComment posts a public reply under commentID.
func (c *Client) ReplyToComment(ctx context.Context, commentID, text string) error {
	return c.post(ctx, "/"+url.PathEscape(commentID)+"/replies", map[string]string{"message": text})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &platform.Failure{Reason: platform.ReasonInvalidToken, Message: err.Error()}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval

	attempt := 0

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++

		err := c.do(ctx, path, token, body)
		if err == nil {
			return struct{}{}, nil
		}

		var failure *platform.Failure
		if errors.As(err, &failure) && !failure.Temporary {
			return struct{}{}, backoff.Permanent(err)
		}

		c.logger.WarnContext(ctx, "Graph API call failed, retrying", "path", path, "attempt", attempt, "error", err)

		return struct{}{}, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(c.maxTries))

	return err
}

type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, path, token string, body []byte) error {
	endpoint := c.baseURL + path + "?access_token=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		// Sends are not idempotent: only a failed dial proves the request never
		// left, so anything later is not retried.
		var opErr *net.OpError
		dialFailed := errors.As(err, &opErr) && opErr.Op == "dial"

		return &platform.Failure{Reason: platform.ReasonNetwork, Message: err.Error(), Temporary: dialFailed}
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	return classify(resp.StatusCode, raw)
}

// classify maps Graph API error codes to failure reasons.
// See https://developers.facebook.com/docs/graph-api/guides/error-handling
func classify(status int, raw []byte) *platform.Failure {
	var apiErr graphError

	reason, temporary := platform.StatusReason(status)
	failure := &platform.Failure{StatusCode: status, Reason: reason, Temporary: temporary}

	if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error.Code == 0 {
		return failure
	}

	failure.Message = apiErr.Error.Message

	switch code := apiErr.Error.Code; {
	case code == 4 || code == 17 || code == 32 || code == 613:
		failure.Reason, failure.Temporary = platform.ReasonRateLimited, false
	case code == 190:
		failure.Reason, failure.Temporary = platform.ReasonInvalidToken, false
	case code == 10 || (code >= 200 && code < 300):
		failure.Reason, failure.Temporary = platform.ReasonPermissionDenied, false
	case code == 551:
		failure.Reason, failure.Temporary = platform.ReasonUserBlocked, false
	case code == 1 || code == 2:
		failure.Reason, failure.Temporary = platform.ReasonUnavailable, true
	case code == 100:
		failure.Reason, failure.Temporary = platform.ReasonInvalidRequest, false
	}

	return failure
}
