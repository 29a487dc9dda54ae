package bpreader

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPromptPath = "config/prompts.yaml"
	promptKey         = "vision_prompt"

	DefaultPrompt = "Please analyze this blood pressure monitor image and extract:\n" +
		"1. Systolic pressure \n" +
		"2. Diastolic pressure \n" +
		"3. Pulse rate \n\n" +
		"Return only these numbers in format: systolic/diastolic/pulse\n" +
		"If any value is not visible, use 'None' for that position."
)

// PromptSource records where a Prompt's text came from.
type PromptSource int

const (
	PromptFile PromptSource = iota
	PromptDefault
)

func (s PromptSource) String() string {
	if s == PromptFile {
		return "file"
	}
	return "default"
}

// Prompt is the instruction sent alongside the image.
type Prompt struct {
	Text   string
	Source PromptSource
	Reason error // why the default was used, nil for PromptFile
}

// LoadPrompt reads the vision_prompt key from the YAML file at path. It never
// fails: any problem yields DefaultPrompt with Source set to PromptDefault and
// Reason explaining what went wrong.
func LoadPrompt(path string) Prompt {
	text, err := readPrompt(path)
	if err != nil {
		return Prompt{Text: DefaultPrompt, Source: PromptDefault, Reason: err}
	}
	return Prompt{Text: text, Source: PromptFile}
}

func readPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt configuration not found at: %s: %w", path, err)
	}

	values := make(map[string]any)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}

	value, ok := values[promptKey]
	if !ok {
		return "", fmt.Errorf("missing %q in configuration", promptKey)
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%q is %T, want string", promptKey, value)
	}
	if text == "" {
		return "", errors.New("empty " + promptKey)
	}

	return text, nil
}
