package protocol

// Capability is an external effect the dispatcher knows how to perform.
type Capability string

const (
	CapabilitySendMessage    Capability = "send_message"
	CapabilityReplyToComment Capability = "reply_to_comment"
	CapabilityCallWebhook    Capability = "call_webhook"
)

// ActionRequest is a fully resolved action: templates rendered, targets chosen.
type ActionRequest struct {
	Capability  Capability        `json:"capability"`
	NodeType    string            `json:"node_type"`
	RecipientID string            `json:"recipient_id,omitempty"`
	CommentID   string            `json:"comment_id,omitempty"`
	Text        string            `json:"text,omitempty"`
	URL         string            `json:"url,omitempty"`
	Method      string            `json:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        []byte            `json:"body,omitempty"`
}
