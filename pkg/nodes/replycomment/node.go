package replycomment

import (
	"errors"
	"fmt"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/dukex/instaflow/pkg/template"
)

// ReplyComment resolves to a reply_to_comment request on the triggering comment.
type ReplyComment struct {
	template string
}

func NewReplyComment(config map[string]any) (*ReplyComment, error) {
	tmpl := nodeconfig.String(config, "template")
	if tmpl == "" {
		return nil, errors.New("missing required field 'template'")
	}

	return &ReplyComment{template: tmpl}, nil
}

func (r *ReplyComment) Capability() protocol.Capability {
	return protocol.CapabilityReplyToComment
}

func (r *ReplyComment) Request(execCtx *models.ExecutionContext) (protocol.ActionRequest, error) {
	if execCtx.Event.CommentID == "" {
		return protocol.ActionRequest{}, fmt.Errorf("event %s has no comment to reply to", execCtx.Event.Kind)
	}

	text, err := template.RenderWithContext(r.template, execCtx)
	if err != nil {
		return protocol.ActionRequest{}, fmt.Errorf("failed to render reply: %w", err)
	}

	return protocol.ActionRequest{
		Capability: protocol.CapabilityReplyToComment,
		CommentID:  execCtx.Event.CommentID,
		Text:       text,
	}, nil
}
