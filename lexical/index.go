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

package lexical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/openquill/threadlens/core"
)

// Match is a single keyword hit. Score is the raw relevance value reported
// by the index, unbounded above.
type Match struct {
	RecordId core.ID
	Score    float64
}

// Index wraps the on-disk keyword index. Safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
}

type indexedDocument struct {
	Table    string `json:"table"`
	Author   string `json:"author"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Location string `json:"location"`
}

// OpenIndex opens the keyword index at path, creating it if absent.
func OpenIndex(path string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	index, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open keyword index: %w", err)
	}
	return &Index{index: index, logger: logger.With("component", "lexical")}, nil
}

// NewMemoryIndex creates a transient in-memory index, used in tests and by
// the in-memory database configuration.
func NewMemoryIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return &Index{index: index, logger: logger.With("component", "lexical")}, nil
}

// IndexDocument adds or replaces the document in the keyword index.
func (ix *Index) IndexDocument(ctx context.Context, doc *core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := ix.index.Index(formatID(doc.Id), indexedDocument{
		Table:    doc.Table,
		Author:   doc.Author,
		Title:    doc.Title,
		Body:     doc.Body,
		Location: doc.Location,
	})
	if err != nil {
		return fmt.Errorf("index document %d: %w", doc.Id, err)
	}
	return nil
}

// DeleteDocument removes the document from the keyword index. Deleting an
// unindexed document is a no-op.
func (ix *Index) DeleteDocument(ctx context.Context, id core.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ix.index.Delete(formatID(id))
}

// Search runs a keyword query against title and body, title weighted
// higher, and returns up to limit matches ordered by relevance descending.
// An empty index yields an empty result.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]*Match, error) {
	if limit <= 0 {
		limit = 10
	}

	bodyQuery := bleve.NewMatchQuery(query)
	bodyQuery.SetField("body")
	bodyQuery.SetBoost(1.0)
	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)

	disjunction := bleve.NewDisjunctionQuery([]blevequery.Query{bodyQuery, titleQuery}...)
	req := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	matches := make([]*Match, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := parseID(hit.ID)
		if err != nil {
			ix.logger.Warn("skipping hit with malformed id", "id", hit.ID)
			continue
		}
		matches = append(matches, &Match{RecordId: id, Score: hit.Score})
	}
	return matches, nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return ix.index.DocCount()
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.index.Close()
}

func formatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseID(s string) (core.ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return core.ID(v), err
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "body"

	docMapping := bleve.NewDocumentMapping()

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Store = false
	bodyField.Index = true
	docMapping.AddFieldMappingsAt("body", bodyField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Store = false
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	locationField := bleve.NewTextFieldMapping()
	locationField.Store = false
	locationField.Index = true
	docMapping.AddFieldMappingsAt("location", locationField)

	tableField := bleve.NewTextFieldMapping()
	tableField.Store = false
	tableField.Index = true
	tableField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("table", tableField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Store = false
	authorField.Index = true
	authorField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("author", authorField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
