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

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client         llms.Model
	model          string
	maxContextDocs int
	logger         *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken("none"),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:         client,
		model:          config.GeneratorModel,
		maxContextDocs: config.MaxContextDocs,
		logger:         slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new answer generator using the provided
// configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// GenerateAnswer streams an answer to the query grounded in the provided
// documents. Each model fragment is forwarded through stream as it arrives;
// the assembled answer is returned once generation completes.
func (g *Generator) GenerateAnswer(ctx context.Context, query string, docs []string, stream ai.StreamFunc) (string, error) {
	if len(docs) > g.maxContextDocs {
		docs = docs[:g.maxContextDocs]
	}

	var contextBlock strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&contextBlock, "[%d] %s\n\n", i+1, doc)
	}

	systemPrompt := fmt.Sprintf(answerPromptTemplate, contextBlock.String())
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(query),
			},
		},
	}

	g.logger.Debug("generating answer", "docs", len(docs), "query_length", len(query))

	opts := []llms.CallOption{llms.WithTemperature(0.2)}
	if stream != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return stream(ctx, chunk)
		}))
	}

	response, err := g.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		g.logger.Error("failed to generate answer", "err", err)
		return "", classifyErr(err)
	}

	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model")
		return "", nil
	}

	return response.Choices[0].Content, nil
}

// Model returns the identifier of the generation model.
func (g *Generator) Model() string {
	return g.model
}
