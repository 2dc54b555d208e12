// Package replycomment provides the reply-comment action node.
package replycomment

import (
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
)

type ReplyCommentFactory struct{}

func (f *ReplyCommentFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewReplyComment(config)
}

func (f *ReplyCommentFactory) ID() string {
	return "reply-comment"
}

func (f *ReplyCommentFactory) Name() string {
	return "Reply to Comment"
}

func (f *ReplyCommentFactory) Description() string {
	return "Publicly reply to the comment or mention that triggered the flow."
}

func (f *ReplyCommentFactory) Role() models.NodeRole {
	return models.NodeRoleAction
}

func (f *ReplyCommentFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Reply text. Supports templates such as @{{ .event.source_username }}",
			},
		},
		"required": []string{"template"},
	}
}

func NewReplyCommentFactory() protocol.ActionFactory {
	return &ReplyCommentFactory{}
}
