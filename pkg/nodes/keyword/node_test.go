package keyword

import (
	"context"
	"testing"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCtx(text string) *models.ExecutionContext {
	return models.NewExecutionContext("exec-1", &models.AutomationFlow{ID: "f1"}, models.TriggerEvent{
		Kind: models.EventKindNewMessage,
		Text: text,
	})
}

func TestKeywordFilter_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		config   map[string]any
		text     string
		expected bool
	}{
		{name: "case-insensitive substring", config: map[string]any{"keywords": []any{"price"}}, text: "What's the PRICE?", expected: true},
		{name: "no match", config: map[string]any{"keywords": []any{"price"}}, text: "hello", expected: false},
		{name: "any of several", config: map[string]any{"keywords": "cost, price"}, text: "how much does it cost", expected: true},
		{name: "all required", config: map[string]any{"keywords": []any{"promo", "code"}, "match": "all"}, text: "any promo code?", expected: true},
		{name: "all required missing one", config: map[string]any{"keywords": []any{"promo", "code"}, "match": "all"}, text: "any promo?", expected: false},
		{name: "absent keywords pass", config: map[string]any{}, text: "anything", expected: true},
		{name: "nil config passes", config: nil, text: "", expected: true},
		{name: "empty text fails", config: map[string]any{"keywords": []any{"price"}}, text: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewKeywordFilter(tt.config)
			require.NoError(t, err)

			result, err := filter.Evaluate(context.Background(), execCtx(tt.text))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestKeywordFilter_RecordsMatchedKeyword(t *testing.T) {
	filter, err := NewKeywordFilter(map[string]any{"keywords": []any{"Price"}})
	require.NoError(t, err)

	ctx := execCtx("price please")
	ok, err := filter.Evaluate(context.Background(), ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "price", ctx.Variables["matched_keyword"])
}

func TestNewKeywordFilter_InvalidMatch(t *testing.T) {
	_, err := NewKeywordFilter(map[string]any{"match": "some"})
	assert.Error(t, err)
}
