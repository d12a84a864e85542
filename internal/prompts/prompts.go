// Package prompts renders the configured system prompt. The prompt is a
// text/template, so a configuration may refer to the tool catalog, the
// platform or the date.
package prompts

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/platform"
)

// PromptData contains data to be injected into the prompt template
type PromptData struct {
	Tools    []catalog.Descriptor
	Platform platform.Info
	Date     string
}

// NewPromptData collects the template data for a session
func NewPromptData(cat *catalog.Catalog, info platform.Info, now time.Time) PromptData {
	return PromptData{
		Tools:    cat.Descriptors(),
		Platform: info,
		Date:     now.Format("2006-01-02"),
	}
}

// RenderSystemPrompt renders a prompt template with the given data
func RenderSystemPrompt(templateContent string, data PromptData) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(templateContent)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
