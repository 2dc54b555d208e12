// Package normalizer turns raw platform webhook payloads into trigger events.
package normalizer

import (
	"encoding/json"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultObjectType is the webhook object handled by default.
const DefaultObjectType = "instagram"

// Change fields mapped to event kinds. Anything else is dropped with a warning.
var changeFieldKinds = map[string]models.EventKind{
	"comments":  models.EventKindNewComment,
	"mentions":  models.EventKindNewMention,
	"follows":   models.EventKindNewFollower,
	"followers": models.EventKindNewFollower,
}

type Normalizer struct {
	logger     *slog.Logger
	objectType string
	schema     gojsonschema.JSONLoader
}

// New creates a normalizer accepting payloads whose object equals objectType.
func New(logger *slog.Logger, objectType string) *Normalizer {
	if objectType == "" {
		objectType = DefaultObjectType
	}

	return &Normalizer{
		logger:     logger.With("module", "normalizer"),
		objectType: objectType,
		schema:     gojsonschema.NewGoLoader(payloadSchema()),
	}
}

// Normalize validates the payload envelope and returns a lazy, finite
// sequence of events. The same payload always yields the same sequence.
func (n *Normalizer) Normalize(payload []byte) (iter.Seq[models.TriggerEvent], error) {
	var document any

	err := json.Unmarshal(payload, &document)
	if err != nil {
		return nil, &NormalizationError{Err: ErrMalformedPayload, Detail: err.Error()}
	}

	envelope, ok := document.(map[string]any)
	if !ok {
		return nil, &NormalizationError{Err: ErrMalformedPayload, Detail: "payload is not an object"}
	}

	object, _ := envelope["object"].(string)
	if object != n.objectType {
		return nil, &NormalizationError{Object: object, Err: ErrUnsupportedObjectType}
	}

	result, err := gojsonschema.Validate(n.schema, gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, &NormalizationError{Object: object, Err: ErrMalformedPayload, Detail: err.Error()}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return nil, &NormalizationError{Object: object, Err: ErrMalformedPayload, Detail: strings.Join(details, "; ")}
	}

	var webhook webhookPayload

	err = json.Unmarshal(payload, &webhook)
	if err != nil {
		return nil, &NormalizationError{Object: object, Err: ErrMalformedPayload, Detail: err.Error()}
	}

	return n.events(webhook), nil
}

func (n *Normalizer) events(webhook webhookPayload) iter.Seq[models.TriggerEvent] {
	return func(yield func(models.TriggerEvent) bool) {
		for _, e := range webhook.Entry {
			for _, raw := range e.Messaging {
				event, ok := n.fromMessaging(raw)
				if ok && !yield(event) {
					return
				}
			}

			for _, raw := range e.Changes {
				event, ok := n.fromChange(raw, e.Time)
				if ok && !yield(event) {
					return
				}
			}
		}
	}
}

func (n *Normalizer) fromMessaging(raw json.RawMessage) (models.TriggerEvent, bool) {
	var item messaging

	err := json.Unmarshal(raw, &item)
	if err != nil {
		n.logger.Warn("Dropping undecodable messaging item", "error", err)

		return models.TriggerEvent{}, false
	}

	event := models.TriggerEvent{
		SourceUserID: item.Sender.ID,
		RecipientID:  item.Recipient.ID,
		OccurredAt:   fromMillis(item.Timestamp),
		Raw:          raw,
	}

	switch {
	case item.Message != nil:
		if item.Message.IsEcho {
			n.logger.Debug("Skipping echo message", "mid", item.Message.Mid)

			return models.TriggerEvent{}, false
		}

		event.Kind = models.EventKindNewMessage
		event.Text = item.Message.Text
	case item.Postback != nil:
		event.Kind = models.EventKindPostback
		event.Text = item.Postback.Payload
	default:
		n.logger.Warn("Dropping messaging item without message or postback", "sender_id", item.Sender.ID)

		return models.TriggerEvent{}, false
	}

	return event, true
}

func (n *Normalizer) fromChange(raw json.RawMessage, entryTime int64) (models.TriggerEvent, bool) {
	var item change

	err := json.Unmarshal(raw, &item)
	if err != nil {
		n.logger.Warn("Dropping undecodable change item", "error", err)

		return models.TriggerEvent{}, false
	}

	kind, known := changeFieldKinds[item.Field]
	if !known {
		n.logger.Warn("Dropping change with unknown field", "field", item.Field)

		return models.TriggerEvent{}, false
	}

	event := models.TriggerEvent{
		Kind:       kind,
		Text:       item.Value.Text,
		MediaID:    item.Value.MediaID,
		OccurredAt: fromEntryTime(entryTime),
		Raw:        raw,
	}

	if item.Value.From != nil {
		event.SourceUserID = item.Value.From.ID
		event.SourceUsername = item.Value.From.Username
	}

	if item.Value.Media != nil && event.MediaID == "" {
		event.MediaID = item.Value.Media.ID
	}

	switch kind {
	case models.EventKindNewComment:
		event.CommentID = item.Value.ID
	case models.EventKindNewMention:
		event.CommentID = item.Value.CommentID
	}

	return event, true
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}

// Entry times arrive in seconds or milliseconds depending on the product.
func fromEntryTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}

	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC()
	}

	return time.Unix(value, 0).UTC()
}

// Collect drains a sequence into a slice.
func Collect(seq iter.Seq[models.TriggerEvent]) []models.TriggerEvent {
	events := make([]models.TriggerEvent, 0)

	for event := range seq {
		events = append(events, event)
	}

	return events
}
