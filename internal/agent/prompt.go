package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed system_prompt.md
var defaultSystemPrompt string

// DefaultSystemPrompt is the persona and rules the assistant starts with.
func DefaultSystemPrompt() string {
	return defaultSystemPrompt
}

// LoadSystemPrompt reads a prompt override, falling back to the default
// when path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}
