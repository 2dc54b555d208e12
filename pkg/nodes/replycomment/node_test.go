package replycomment

import (
	"testing"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyComment_Request(t *testing.T) {
	action, err := NewReplyComment(map[string]any{"template": "Thanks @{{ .event.source_username }}! Check your DMs"})
	require.NoError(t, err)
	assert.Equal(t, protocol.CapabilityReplyToComment, action.Capability())

	execCtx := models.NewExecutionContext("exec", &models.AutomationFlow{ID: "f"}, models.TriggerEvent{
		Kind:           models.EventKindNewComment,
		SourceUserID:   "u3",
		SourceUsername: "ana",
		CommentID:      "c1",
	})

	req, err := action.Request(execCtx)
	require.NoError(t, err)
	assert.Equal(t, "c1", req.CommentID)
	assert.Equal(t, "Thanks @ana! Check your DMs", req.Text)
}

func TestReplyComment_RequiresComment(t *testing.T) {
	action, err := NewReplyComment(map[string]any{"template": "hi"})
	require.NoError(t, err)

	execCtx := models.NewExecutionContext("exec", &models.AutomationFlow{ID: "f"}, models.TriggerEvent{Kind: models.EventKindNewMessage})

	_, err = action.Request(execCtx)
	assert.Error(t, err)

	_, err = NewReplyComment(nil)
	assert.Error(t, err)
}
