// Package template renders user-authored message templates against an execution.
package template

import (
	"crypto/rand"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dukex/instaflow/pkg/models"
)

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"rand": func(max int) int {
		if max <= 0 {
			return 0
		}
		num := make([]byte, 1)
		_, err := rand.Read(num)
		if err != nil {
			return 0
		}

		return int(num[0]) % max
	},
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"default": func(fallback string, value any) string {
		s, ok := value.(string)
		if !ok || s == "" {
			return fallback
		}

		return s
	},
}

// RenderWithContext renders input with the event, variables and flow of executionCtx.
// Templates see .event, .variables, .vars and .flow.
func RenderWithContext(input string, executionCtx *models.ExecutionContext) (string, error) {
	data := map[string]any{
		"event":     executionCtx.Event.TemplateData(),
		"variables": executionCtx.Variables,
		"vars":      executionCtx.Variables,
		"flow": map[string]any{
			"id":   executionCtx.FlowID,
			"name": executionCtx.FlowName,
		},
		"execution": map[string]any{
			"id": executionCtx.ID,
		},
	}

	return Render(input, data)
}

// Render executes templateStr against data and returns the trimmed text.
func Render(templateStr string, data any) (string, error) {
	if !strings.Contains(templateStr, "{{") {
		return templateStr, nil
	}

	tmpl, err := template.New("message").Funcs(funcs).Option("missingkey=zero").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return strings.TrimSpace(buf.String()), nil
}
