package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/openquill/threadlens/ai"
)

// IntentExtractor implements ai.IntentExtractor using OpenAI-compatible
// chat APIs.
type IntentExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// intentResponse matches the JSON structure expected from the LLM.
type intentResponse struct {
	Intent   string              `json:"intent"`
	Entities map[string][]string `json:"entities"`
	Topics   []string            `json:"topics"`
}

// newIntentExtractor is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newIntentExtractor(config *ai.Config) (*IntentExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken("none"),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return &IntentExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-intent"),
	}, nil
}

// NewIntentExtractor creates a new intent extractor using the provided
// configuration.
//
// Returns ai.IntentExtractor interface to enforce abstraction.
func NewIntentExtractor(config *ai.Config) (ai.IntentExtractor, error) {
	return newIntentExtractor(config)
}

// ExtractIntent classifies a search query using an LLM.
func (e *IntentExtractor) ExtractIntent(ctx context.Context, query string) (*ai.QueryIntent, error) {
	systemPrompt := fmt.Sprintf(intentPromptTemplate, intentResponseSchema)

	var result intentResponse
	if err := generateJSON(ctx, e.client, e.logger, systemPrompt, query, &result); err != nil {
		return nil, err
	}

	intent := &ai.QueryIntent{
		Intent:   strings.TrimSpace(result.Intent),
		Entities: make(map[string][]string, len(result.Entities)),
		Topics:   normalizeLabels(result.Topics),
	}
	for category, values := range result.Entities {
		category = strings.ToLower(strings.TrimSpace(category))
		values = dedupe(values)
		if category == "" || len(values) == 0 {
			continue
		}
		intent.Entities[category] = values
	}

	e.logger.Debug("extracted query intent",
		"entities", len(intent.Entities),
		"topics", len(intent.Topics))
	return intent, nil
}
