package senddm

import (
	"errors"
	"fmt"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/dukex/instaflow/pkg/template"
)

// SendDM resolves to a send_message request.
type SendDM struct {
	template  string
	recipient string
}

func NewSendDM(config map[string]any) (*SendDM, error) {
	tmpl := nodeconfig.String(config, "template")
	if tmpl == "" {
		return nil, errors.New("missing required field 'template'")
	}

	return &SendDM{
		template:  tmpl,
		recipient: nodeconfig.String(config, "recipient"),
	}, nil
}

func (s *SendDM) Capability() protocol.Capability {
	return protocol.CapabilitySendMessage
}

func (s *SendDM) Request(execCtx *models.ExecutionContext) (protocol.ActionRequest, error) {
	recipient := s.recipient
	if recipient == "" {
		recipient = execCtx.Event.SourceUserID
	}

	if recipient == "" {
		return protocol.ActionRequest{}, errors.New("event has no source user to message")
	}

	text, err := template.RenderWithContext(s.template, execCtx)
	if err != nil {
		return protocol.ActionRequest{}, fmt.Errorf("failed to render message: %w", err)
	}

	return protocol.ActionRequest{
		Capability:  protocol.CapabilitySendMessage,
		RecipientID: recipient,
		Text:        text,
	}, nil
}
