// Package prompt holds the versioned instruction sent with every image.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

//go:embed extraction.yaml
var defaultExtraction []byte

type document struct {
	Version     string `yaml:"version"`
	Instruction string `yaml:"instruction"`
	Template    string `yaml:"template"`
}

// Load returns the built-in prompt, or the one in path when path is set.
func Load(path string) (domain.ExtractionPrompt, error) {
	raw := defaultExtraction
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.ExtractionPrompt{}, fmt.Errorf("read prompt file: %w", err)
		}
		raw = data
	}
	return Parse(raw)
}

func Parse(raw []byte) (domain.ExtractionPrompt, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.ExtractionPrompt{}, fmt.Errorf("decode prompt yaml: %w", err)
	}
	doc.Version = strings.TrimSpace(doc.Version)
	doc.Instruction = strings.TrimSpace(doc.Instruction)
	if doc.Version == "" || doc.Instruction == "" {
		return domain.ExtractionPrompt{}, errors.New("prompt requires version and instruction")
	}

	text := doc.Instruction
	if template := strings.TrimSpace(doc.Template); template != "" {
		text += " JSON formate: " + template
	}
	return domain.ExtractionPrompt{Version: doc.Version, Text: text}, nil
}
