package normalizer_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNormalizer() *normalizer.Normalizer {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return normalizer.New(logger, "")
}

const messagePayload = `{
	"object": "instagram",
	"entry": [{
		"id": "page-1",
		"time": 1700000000,
		"messaging": [{
			"sender": {"id": "u1"},
			"recipient": {"id": "page-1"},
			"timestamp": 1700000000123,
			"message": {"mid": "m1", "text": "What's the price?"}
		}]
	}]
}`

func TestNormalize_Message(t *testing.T) {
	seq, err := newNormalizer().Normalize([]byte(messagePayload))
	require.NoError(t, err)

	events := normalizer.Collect(seq)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, models.EventKindNewMessage, event.Kind)
	assert.Equal(t, "u1", event.SourceUserID)
	assert.Equal(t, "page-1", event.RecipientID)
	assert.Equal(t, "What's the price?", event.Text)
	assert.Equal(t, time.UnixMilli(1700000000123).UTC(), event.OccurredAt)
	assert.NotEmpty(t, event.Raw)
}

func TestNormalize_ChangesAndPostback(t *testing.T) {
	payload := `{
		"object": "instagram",
		"entry": [{
			"time": 1700000000,
			"messaging": [
				{"sender": {"id": "u2"}, "postback": {"title": "Menu", "payload": "MENU_OPEN"}},
				{"sender": {"id": "page-1"}, "message": {"mid": "m2", "text": "echo", "is_echo": true}}
			],
			"changes": [
				{"field": "comments", "value": {"id": "c1", "text": "Love it", "from": {"id": "u3", "username": "ana"}, "media": {"id": "media-1", "media_type": "IMAGE"}}},
				{"field": "mentions", "value": {"comment_id": "c2", "media_id": "media-2"}},
				{"field": "follows", "value": {"from": {"id": "u4", "username": "bob"}}},
				{"field": "story_insights", "value": {"reach": 10}}
			]
		}]
	}`

	seq, err := newNormalizer().Normalize([]byte(payload))
	require.NoError(t, err)

	events := normalizer.Collect(seq)
	require.Len(t, events, 4)

	assert.Equal(t, models.EventKindPostback, events[0].Kind)
	assert.Equal(t, "MENU_OPEN", events[0].Text)

	comment := events[1]
	assert.Equal(t, models.EventKindNewComment, comment.Kind)
	assert.Equal(t, "u3", comment.SourceUserID)
	assert.Equal(t, "ana", comment.SourceUsername)
	assert.Equal(t, "c1", comment.CommentID)
	assert.Equal(t, "media-1", comment.MediaID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), comment.OccurredAt)

	mention := events[2]
	assert.Equal(t, models.EventKindNewMention, mention.Kind)
	assert.Equal(t, "c2", mention.CommentID)
	assert.Equal(t, "media-2", mention.MediaID)

	follower := events[3]
	assert.Equal(t, models.EventKindNewFollower, follower.Kind)
	assert.Equal(t, "u4", follower.SourceUserID)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newNormalizer()

	first, err := n.Normalize([]byte(messagePayload))
	require.NoError(t, err)

	second, err := n.Normalize([]byte(messagePayload))
	require.NoError(t, err)

	assert.Equal(t, normalizer.Collect(first), normalizer.Collect(second))
}

func TestNormalize_SequenceCanStopEarly(t *testing.T) {
	payload := `{"object": "instagram", "entry": [{"messaging": [
		{"sender": {"id": "u1"}, "message": {"text": "a"}},
		{"sender": {"id": "u2"}, "message": {"text": "b"}}
	]}]}`

	seq, err := newNormalizer().Normalize([]byte(payload))
	require.NoError(t, err)

	count := 0
	for range seq {
		count++

		break
	}

	assert.Equal(t, 1, count)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected error
	}{
		{name: "other platform object", payload: `{"object": "page", "entry": []}`, expected: normalizer.ErrUnsupportedObjectType},
		{name: "missing object", payload: `{"entry": []}`, expected: normalizer.ErrUnsupportedObjectType},
		{name: "invalid json", payload: `{"object":`, expected: normalizer.ErrMalformedPayload},
		{name: "not an object", payload: `[1, 2]`, expected: normalizer.ErrMalformedPayload},
		{name: "entry is not a list", payload: `{"object": "instagram", "entry": "nope"}`, expected: normalizer.ErrMalformedPayload},
		{name: "sender without id", payload: `{"object": "instagram", "entry": [{"messaging": [{"sender": {}}]}]}`, expected: normalizer.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := newNormalizer().Normalize([]byte(tt.payload))

			require.Error(t, err)
			assert.Nil(t, seq)
			assert.ErrorIs(t, err, tt.expected)
			assert.True(t, normalizer.IsNormalizationError(err))
		})
	}
}

func TestNormalize_EmptyEntry(t *testing.T) {
	seq, err := newNormalizer().Normalize([]byte(`{"object": "instagram", "entry": []}`))
	require.NoError(t, err)

	assert.Empty(t, normalizer.Collect(seq))
}
