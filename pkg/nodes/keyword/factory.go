// Package keyword provides the keyword-filter condition node.
package keyword

import (
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
)

// KeywordFilterFactory creates KeywordFilter conditions.
type KeywordFilterFactory struct{}

// Create creates a new KeywordFilter instance.
func (f *KeywordFilterFactory) Create(config map[string]any) (protocol.Condition, error) {
	return NewKeywordFilter(config)
}

func (f *KeywordFilterFactory) ID() string {
	return "keyword-filter"
}

func (f *KeywordFilterFactory) Name() string {
	return "Keyword Filter"
}

func (f *KeywordFilterFactory) Description() string {
	return "Check if the event text contains specific keywords (case-insensitive). Without keywords every event passes."
}

func (f *KeywordFilterFactory) Role() models.NodeRole {
	return models.NodeRoleCondition
}

// Schema returns the JSON schema for keyword filter configuration.
func (f *KeywordFilterFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keywords": map[string]any{
				"description": "Keywords to look for, as a list or a comma separated string",
				"oneOf": []map[string]any{
					{"type": "array", "items": map[string]any{"type": "string"}},
					{"type": "string"},
				},
			},
			"match": map[string]any{
				"type":        "string",
				"enum":        []string{MatchAny, MatchAll},
				"default":     MatchAny,
				"description": "Whether any keyword or all keywords must appear",
			},
		},
		"examples": []map[string]any{
			{"keywords": []string{"price", "cost", "how much"}},
			{"keywords": "promo, discount", "match": MatchAll},
		},
	}
}

func NewKeywordFilterFactory() protocol.ConditionFactory {
	return &KeywordFilterFactory{}
}
