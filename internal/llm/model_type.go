package llm

import (
	"fmt"
	"strings"
)

type ModelType string

const (
	ModelTypeOpenAI    ModelType = "openai"
	ModelTypeAnthropic ModelType = "anthropic"
)

// ParseModelType accepts "openai" (the default, also used for any
// OpenAI-compatible endpoint) and "anthropic"/"anthropics".
func ParseModelType(raw string) (ModelType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModelTypeOpenAI), "openai-compatible", "groq":
		return ModelTypeOpenAI, nil
	case string(ModelTypeAnthropic), "anthropics", "claude":
		return ModelTypeAnthropic, nil
	default:
		return "", fmt.Errorf("unsupported model type %q (supported: %q, %q)", raw, ModelTypeOpenAI, ModelTypeAnthropic)
	}
}
