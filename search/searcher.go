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

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/analyze"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/lexical"
	"github.com/openquill/threadlens/storage"
)

// locationBoost multiplies the final score of documents whose location
// matches one resolved from the query.
const locationBoost = 1.1

// analysisCacheLimit bounds the per-searcher query analysis cache.
const analysisCacheLimit = 512

// Searcher provides hybrid vector and keyword search over documents.
type Searcher struct {
	documents  storage.DocumentRepository
	embeddings storage.EmbeddingRepository
	index      *lexical.Index
	embedder   ai.Embedder
	analyzer   *analyze.Analyzer
	logger     *slog.Logger

	mu            sync.Mutex
	analysisCache map[string]*core.QueryAnalysis
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	embeddings storage.EmbeddingRepository,
	index *lexical.Index,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	analyzer, err := analyze.NewAnalyzer(provider.IntentExtractor())
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		documents:     documents,
		embeddings:    embeddings,
		index:         index,
		embedder:      provider.Embedder(),
		analyzer:      analyzer,
		logger:        slog.Default(),
		analysisCache: make(map[string]*core.QueryAnalysis),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "search")
	return s, nil
}

// Search runs a hybrid search for the query.
// Returns results ranked by merged score descending.
func (s *Searcher) Search(ctx context.Context, query *core.SearchQuery) ([]*core.RankedResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor runs a hybrid search with monitoring callbacks at each
// stage. The query is validated before any collaborator is called.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query *core.SearchQuery, monitor SearchMonitor) ([]*core.RankedResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	core.ApplyQueryDefaults(query)
	if err := core.ValidateSearchQuery(query); err != nil {
		return nil, err
	}

	monitor.Start(query.Query)

	analysis := s.analyzeQuery(ctx, query)
	monitor.AfterAnalysis(analysis)

	// Vector leg. An embedding failure either degrades to keyword-only
	// (when the query opts in) or fails the search. A dimension mismatch
	// is a configuration error and always fails, fallback or not.
	vectorScores, vecErr := s.vectorLeg(ctx, query)
	if vecErr != nil {
		if errors.Is(vecErr, core.ErrDimensionMismatch) {
			return nil, vecErr
		}
		if !query.LexicalFallback {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, vecErr)
		}
		s.logger.Warn("vector leg unavailable, degrading to keyword-only", "err", vecErr)
		return s.supplementalSearch(ctx, query, analysis, monitor)
	}
	monitor.AfterVectorSearch(idsOf(vectorScores))

	textScores, err := s.keywordLeg(ctx, query)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordSearch(idsOf(textScores))

	// Merge: a document missing from one leg contributes zero for it.
	union := make(map[core.ID]struct{}, len(vectorScores)+len(textScores))
	for id := range vectorScores {
		union[id] = struct{}{}
	}
	for id := range textScores {
		union[id] = struct{}{}
	}
	if len(union) == 0 {
		monitor.Finish(nil)
		return []*core.RankedResult{}, nil
	}

	ids := make([]core.ID, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	docs, err := s.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	monitor.AfterDocumentRetrieval(docs)

	results := make([]*core.RankedResult, 0, len(docs))
	for _, doc := range docs {
		vec, inVector := vectorScores[doc.Id]
		text, inText := textScores[doc.Id]

		switch {
		case inVector && inText:
			monitor.HybridHit(doc)
		case inVector:
			monitor.VectorHit(doc)
		default:
			monitor.KeywordHit(doc)
		}

		final := query.VectorWeight*vec + query.TextWeight*text
		if matchesLocation(doc, analysis.Locations) {
			final *= locationBoost
		}

		results = append(results, &core.RankedResult{
			Document:    doc,
			VectorScore: vec,
			TextScore:   text,
			FinalScore:  final,
		})
	}

	sortResults(results)
	if len(results) > query.MaxResults {
		results = results[:query.MaxResults]
	}
	monitor.Finish(results)
	return results, nil
}

// vectorLeg embeds the query and collects similarity scores normalized to
// [0,1]. Stored vectors are unit length, so the dot product is in [-1,1].
func (s *Searcher) vectorLeg(ctx context.Context, query *core.SearchQuery) (map[core.ID]float32, error) {
	vector, err := s.embedder.EmbedText(ctx, query.Query)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, ErrEmbeddingUnavailable
	}

	matches, err := s.embeddings.FindSimilar(ctx, vector, query.EfSearch)
	if err != nil {
		return nil, err
	}

	scores := make(map[core.ID]float32, len(matches))
	for _, match := range matches {
		scores[match.RecordId] = (match.Score + 1) / 2
	}
	return scores, nil
}

// keywordLeg collects keyword relevance scores normalized to [0,1] by
// dividing by the best raw score in the result set.
func (s *Searcher) keywordLeg(ctx context.Context, query *core.SearchQuery) (map[core.ID]float32, error) {
	matches, err := s.index.Search(ctx, query.Query, query.EfSearch)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return map[core.ID]float32{}, nil
	}

	best := matches[0].Score
	for _, match := range matches {
		if match.Score > best {
			best = match.Score
		}
	}

	scores := make(map[core.ID]float32, len(matches))
	for _, match := range matches {
		if best > 0 {
			scores[match.RecordId] = float32(match.Score / best)
		}
	}
	return scores, nil
}

// supplementalSearch is the degraded keyword-only path. Results keep their
// normalized keyword score untouched rather than being run through the
// weighted merge, and are flagged supplemental so clients can tell them
// apart from hybrid results.
func (s *Searcher) supplementalSearch(ctx context.Context, query *core.SearchQuery, analysis *core.QueryAnalysis, monitor SearchMonitor) ([]*core.RankedResult, error) {
	textScores, err := s.keywordLeg(ctx, query)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordSearch(idsOf(textScores))

	ids := make([]core.ID, 0, len(textScores))
	for id := range textScores {
		ids = append(ids, id)
	}
	docs, err := s.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	monitor.AfterDocumentRetrieval(docs)

	results := make([]*core.RankedResult, 0, len(docs))
	for _, doc := range docs {
		text := textScores[doc.Id]
		results = append(results, &core.RankedResult{
			Document:     doc,
			TextScore:    text,
			FinalScore:   text,
			Supplemental: true,
		})
	}

	sortResults(results)
	if len(results) > query.MaxResults {
		results = results[:query.MaxResults]
	}
	monitor.SupplementalFill(len(results))
	monitor.Finish(results)
	return results, nil
}

// analyzeQuery returns the cached analysis for the query text unless the
// query skips the cache. Analysis is deterministic per query text, so the
// cache only shortcuts repeat queries.
func (s *Searcher) analyzeQuery(ctx context.Context, query *core.SearchQuery) *core.QueryAnalysis {
	cacheKey := query.Query + "\x00" + query.DefaultLocation

	if !query.SkipCache {
		s.mu.Lock()
		cached, ok := s.analysisCache[cacheKey]
		s.mu.Unlock()
		if ok {
			return cached
		}
	}

	analysis := s.analyzer.AnalyzeQuery(ctx, query.Query, query.DefaultLocation)

	s.mu.Lock()
	if len(s.analysisCache) >= analysisCacheLimit {
		s.analysisCache = make(map[string]*core.QueryAnalysis)
	}
	s.analysisCache[cacheKey] = analysis
	s.mu.Unlock()
	return analysis
}

// sortResults orders by final score descending, breaking near-ties by
// document recency.
func sortResults(results []*core.RankedResult) {
	const epsilon = 1e-6
	sort.SliceStable(results, func(i, j int) bool {
		di := results[i].FinalScore - results[j].FinalScore
		if di > epsilon {
			return true
		}
		if di < -epsilon {
			return false
		}
		return results[i].Document.CreatedAt.After(results[j].Document.CreatedAt)
	})
}

func matchesLocation(doc *core.Document, locations []string) bool {
	if doc.Location == "" || len(locations) == 0 {
		return false
	}
	docLoc := strings.ToLower(doc.Location)
	for _, loc := range locations {
		if strings.Contains(docLoc, strings.ToLower(loc)) {
			return true
		}
	}
	return false
}

func idsOf(scores map[core.ID]float32) []core.ID {
	ids := make([]core.ID, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	return ids
}
