// Copyright 2026 Openquill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

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

// MetadataExtractor implements ai.MetadataExtractor using OpenAI-compatible
// chat APIs.
type MetadataExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// metadataResponse matches the JSON structure expected from the LLM.
type metadataResponse struct {
	Topics   []string `json:"topics"`
	Entities []string `json:"entities"`
	Tags     []string `json:"tags"`
}

// newMetadataExtractor is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newMetadataExtractor(config *ai.Config) (*MetadataExtractor, error) {
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

	return &MetadataExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewMetadataExtractor creates a new metadata extractor using the provided
// configuration.
//
// Returns ai.MetadataExtractor interface to enforce abstraction.
func NewMetadataExtractor(config *ai.Config) (ai.MetadataExtractor, error) {
	return newMetadataExtractor(config)
}

// ExtractMetadata derives topics, entities, and tags from document text
// using an LLM.
func (e *MetadataExtractor) ExtractMetadata(ctx context.Context, text string) (*ai.ExtractedMetadata, error) {
	systemPrompt := fmt.Sprintf(metadataPromptTemplate, metadataResponseSchema)

	var result metadataResponse
	if err := generateJSON(ctx, e.client, e.logger, systemPrompt, text, &result); err != nil {
		return nil, err
	}

	meta := &ai.ExtractedMetadata{
		Topics:   normalizeLabels(result.Topics),
		Entities: dedupe(result.Entities),
		Tags:     normalizeLabels(result.Tags),
	}

	e.logger.Debug("extracted metadata",
		"topics", len(meta.Topics),
		"entities", len(meta.Entities),
		"tags", len(meta.Tags))
	return meta, nil
}

// normalizeLabels lowercases, trims, and dedupes model-produced labels.
func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		out = append(out, strings.ToLower(strings.TrimSpace(label)))
	}
	return dedupe(out)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
