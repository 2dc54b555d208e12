package normalizer

import "encoding/json"

type webhookPayload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	Time      int64             `json:"time"`
	Messaging []json.RawMessage `json:"messaging"`
	Changes   []json.RawMessage `json:"changes"`
}

type participant struct {
	ID string `json:"id"`
}

type messaging struct {
	Sender    participant `json:"sender"`
	Recipient participant `json:"recipient"`
	Timestamp int64       `json:"timestamp"`
	Message   *struct {
		Mid    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo"`
	} `json:"message"`
	Postback *struct {
		Title   string `json:"title"`
		Payload string `json:"payload"`
	} `json:"postback"`
}

type change struct {
	Field string `json:"field"`
	Value struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		CommentID string `json:"comment_id"`
		MediaID   string `json:"media_id"`
		From      *struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Media *struct {
			ID        string `json:"id"`
			MediaType string `json:"media_type"`
		} `json:"media"`
	} `json:"value"`
}

// payloadSchema is the minimal envelope shape accepted by the normalizer.
func payloadSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"object"},
		"properties": map[string]any{
			"object": map[string]any{"type": "string"},
			"entry": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":   map[string]any{"type": []string{"string", "number"}},
						"time": map[string]any{"type": "number"},
						"messaging": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":     "object",
								"required": []string{"sender"},
								"properties": map[string]any{
									"sender": map[string]any{
										"type":     "object",
										"required": []string{"id"},
										"properties": map[string]any{
											"id": map[string]any{"type": "string"},
										},
									},
									"timestamp": map[string]any{"type": "number"},
								},
							},
						},
						"changes": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":     "object",
								"required": []string{"field", "value"},
								"properties": map[string]any{
									"field": map[string]any{"type": "string"},
									"value": map[string]any{"type": "object"},
								},
							},
						},
					},
				},
			},
		},
	}
}
