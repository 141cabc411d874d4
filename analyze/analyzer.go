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

package analyze

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/core"
)

// ErrIntentExtractorRequired is returned when an intent extractor is not provided.
var ErrIntentExtractorRequired = errors.New("intent extractor required")

// Analyzer classifies search queries. It is safe for concurrent use.
type Analyzer struct {
	extractor ai.IntentExtractor
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// NewAnalyzer creates a query analyzer backed by the given intent extractor.
func NewAnalyzer(extractor ai.IntentExtractor, opts ...Option) (*Analyzer, error) {
	if extractor == nil {
		return nil, ErrIntentExtractorRequired
	}
	a := &Analyzer{
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "analyze")
	return a, nil
}

// AnalyzeQuery classifies the query and resolves its locations. Location
// entities are mapped through the canonical location table; when the query
// names no location, defaultLocation (if any) fills in. Extraction failure
// is non-fatal: the analysis degrades to the raw query with no entities
// rather than failing the search.
func (a *Analyzer) AnalyzeQuery(ctx context.Context, query, defaultLocation string) *core.QueryAnalysis {
	analysis := &core.QueryAnalysis{
		Intent:   query,
		Entities: map[string][]string{},
	}

	intent, err := a.extractor.ExtractIntent(ctx, query)
	if err != nil {
		a.logger.Warn("query analysis failed, using raw query", "err", err)
	} else if intent != nil {
		if intent.Intent != "" {
			analysis.Intent = intent.Intent
		}
		analysis.Entities = intent.Entities
		analysis.Topics = intent.Topics
	}

	seen := make(map[string]struct{})
	for _, raw := range analysis.Entities["location"] {
		canonical := CanonicalLocation(raw)
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		analysis.Locations = append(analysis.Locations, canonical)
	}

	if len(analysis.Locations) == 0 && defaultLocation != "" {
		analysis.Locations = append(analysis.Locations, CanonicalLocation(defaultLocation))
	}

	a.logger.Debug("analyzed query",
		"topics", len(analysis.Topics),
		"locations", analysis.Locations)
	return analysis
}
