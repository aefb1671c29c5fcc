package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ParseExtraction turns free-form backend text into a JSON value.
// Order: whole text, then the first fenced block, then that block (or the raw
// text when no block exists) trimmed to the outermost braces. Any non-null JSON
// value is accepted before trimming, so arrays survive intact.
func ParseExtraction(text string) (any, error) {
	if parsed, ok := decodeValue(text); ok {
		return parsed, nil
	}

	candidate := text
	if match := fencedBlockPattern.FindStringSubmatch(text); match != nil {
		if parsed, ok := decodeValue(match[1]); ok {
			return parsed, nil
		}
		candidate = match[1]
	}
	candidate = trimToOutermostObject(candidate)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, fmt.Errorf("JSON parsing error: %w", err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("JSON parsing error: %w", errors.New("no JSON object found"))
	}
	return parsed, nil
}

func decodeValue(text string) (any, bool) {
	var parsed any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil || parsed == nil {
		return nil, false
	}
	return parsed, true
}

func trimToOutermostObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
