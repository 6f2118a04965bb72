package site

import (
	"fmt"
	"strings"
	"text/template"
)

// PromptInput is the scraped context a prompt is rendered from.
type PromptInput struct {
	Author       string
	Text         string
	Instructions string // user's custom instructions, passed through verbatim
}

// Prompt renders the adapter's prompt for one activation.
func (a Adapter) Prompt(in PromptInput) (string, error) {
	if a.prompt == nil {
		return "", fmt.Errorf("site: %s: no prompt template", a.Name)
	}
	var b strings.Builder
	if err := a.prompt.Execute(&b, in); err != nil {
		return "", fmt.Errorf("site: %s: render prompt: %w", a.Name, err)
	}
	return b.String(), nil
}

var promptFuncs = template.FuncMap{
	"instructions": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return ""
		}
		return "These instructions are extremely important. " + s
	},
}

func newPrompt(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(promptFuncs).Parse(text))
}
