package keyword

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
)

const (
	MatchAny = "any"
	MatchAll = "all"
)

// KeywordFilter passes events whose text contains the configured keywords.
type KeywordFilter struct {
	keywords []string
	matchAll bool
}

func NewKeywordFilter(config map[string]any) (*KeywordFilter, error) {
	match := nodeconfig.String(config, "match")

	switch match {
	case "", MatchAny, MatchAll:
	default:
		return nil, fmt.Errorf("invalid match mode %q", match)
	}

	keywords := nodeconfig.StringList(config, "keywords")
	for i, keyword := range keywords {
		keywords[i] = strings.ToLower(keyword)
	}

	return &KeywordFilter{
		keywords: keywords,
		matchAll: match == MatchAll,
	}, nil
}

// Evaluate reports whether the event text matches. No keywords always passes.
func (k *KeywordFilter) Evaluate(_ context.Context, execCtx *models.ExecutionContext) (bool, error) {
	if len(k.keywords) == 0 {
		return true, nil
	}

	text := strings.ToLower(execCtx.Event.Text)

	for _, keyword := range k.keywords {
		found := strings.Contains(text, keyword)

		if found && !k.matchAll {
			execCtx.Variables["matched_keyword"] = keyword

			return true, nil
		}

		if !found && k.matchAll {
			return false, nil
		}
	}

	return k.matchAll, nil
}
