// Package models defines the core domain models for social-platform automation flows
package models

import (
	"encoding/json"
	"time"
)

// EventKind is the normalized category of an inbound platform event.
type EventKind string

const (
	EventKindNewMessage   EventKind = "new_message"
	EventKindNewComment   EventKind = "new_comment"
	EventKindNewMention   EventKind = "new_mention"
	EventKindNewFollower  EventKind = "new_follower"
	EventKindPostback     EventKind = "postback"      // Passed through, no trigger maps to it
	EventKindScheduleTick EventKind = "schedule_tick" // Produced by the scheduler only
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventKindNewMessage, EventKindNewComment, EventKindNewMention,
		EventKindNewFollower, EventKindPostback, EventKindScheduleTick:
		return true
	default:
		return false
	}
}

// TriggerEvent is the normalized form of one inbound occurrence.
// It is a value type and must not be mutated after normalization.
type TriggerEvent struct {
	Kind           EventKind       `json:"kind"                      validate:"required"`
	SourceUserID   string          `json:"source_user_id"`
	SourceUsername string          `json:"source_username,omitempty"`
	RecipientID    string          `json:"recipient_id,omitempty"`
	Text           string          `json:"text,omitempty"`
	MediaID        string          `json:"media_id,omitempty"`
	CommentID      string          `json:"comment_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// TemplateData exposes the event to text templates.
func (e TriggerEvent) TemplateData() map[string]any {
	return map[string]any{
		"kind":            string(e.Kind),
		"source_user_id":  e.SourceUserID,
		"source_username": e.SourceUsername,
		"recipient_id":    e.RecipientID,
		"text":            e.Text,
		"media_id":        e.MediaID,
		"comment_id":      e.CommentID,
		"occurred_at":     e.OccurredAt,
	}
}
