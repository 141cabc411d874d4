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

package stream

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openquill/threadlens/core"
)

// errStopped aborts generation when the session is stopped mid-stream.
var errStopped = errors.New("session stopped")

// Session is one streaming search-and-summarize run. Create it with
// Orchestrator.NewSession and consume it once via Updates. Stop may be
// called from any goroutine.
type Session struct {
	query        *core.SearchQuery
	orchestrator *Orchestrator

	stopped atomic.Bool

	mu      sync.Mutex
	status  Status
	content strings.Builder
	results []*core.RankedResult
}

// Stop cancels the session. In-flight generation is aborted and no content
// updates are emitted after the stop takes effect.
func (s *Session) Stop() {
	s.stopped.Store(true)
}

// Status returns the session's current phase.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Content returns the answer text accumulated so far.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.String()
}

// Results returns the search results, available once the session has
// passed search_complete. Stopped and errored sessions keep whatever
// results were ranked before the interruption.
func (s *Session) Results() []*core.RankedResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Updates runs the session and yields its update sequence: status
// transitions, content fragments during generation, and a final metadata
// record on success. The sequence ends after a terminal status (complete,
// stopped, or error). Breaking out of the range stops the session.
func (s *Session) Updates(ctx context.Context) iter.Seq[Update] {
	return func(yield func(Update) bool) {
		// Once yield returns false the consumer is gone and must not be
		// called again. emit latches that and stops the session.
		broken := false
		emit := func(u Update) bool {
			if broken {
				return false
			}
			if u.Type == UpdateStatus {
				s.setStatus(u.Status)
			}
			if yield(u) {
				return true
			}
			broken = true
			s.stopped.Store(true)
			return false
		}

		if !emit(statusUpdate(StatusInitializing)) {
			return
		}
		if s.checkStopped(emit) {
			return
		}

		// Search phase
		if !emit(statusUpdate(StatusSearching)) {
			return
		}
		searchStart := time.Now()
		results, err := s.orchestrator.searcher.Search(ctx, s.query)
		searchElapsed := time.Since(searchStart)
		if err != nil {
			s.orchestrator.logger.Error("search failed", "query", s.query.Query, "error", err)
			emit(errorUpdate("search failed"))
			return
		}
		s.setResults(results)
		if s.checkStopped(emit) {
			return
		}
		if !emit(searchCompleteUpdate(len(results))) {
			return
		}

		// Generation phase
		if !emit(statusUpdate(StatusGenerating)) {
			return
		}
		genStart := time.Now()
		_, err = s.orchestrator.generator.GenerateAnswer(ctx, s.query.Query, s.contextDocs(results),
			func(ctx context.Context, chunk []byte) error {
				if s.stopped.Load() {
					return errStopped
				}
				s.appendContent(string(chunk))
				if !emit(contentUpdate(string(chunk))) {
					return errStopped
				}
				return nil
			})
		genElapsed := time.Since(genStart)

		if broken {
			return
		}
		if s.stopped.Load() {
			emit(statusUpdate(StatusStopped))
			return
		}
		if err != nil && !errors.Is(err, errStopped) {
			// Partial results and content stay readable on the session
			s.orchestrator.logger.Error("answer generation failed", "query", s.query.Query, "error", err)
			emit(errorUpdate("answer generation failed"))
			return
		}

		meta := &Metadata{
			ResultCount: len(results),
			SearchMS:    searchElapsed.Milliseconds(),
			GenerateMS:  genElapsed.Milliseconds(),
			Model:       s.orchestrator.generator.Model(),
		}
		if len(results) > 0 && results[0].Supplemental {
			meta.Supplemental = true
		}
		if !emit(Update{Type: UpdateMetadata, Metadata: meta}) {
			return
		}
		emit(statusUpdate(StatusComplete))
	}
}

// contextDocs renders the top results as grounding text for the generator.
func (s *Session) contextDocs(results []*core.RankedResult) []string {
	limit := s.orchestrator.maxContextDocs
	if len(results) < limit {
		limit = len(results)
	}
	docs := make([]string, 0, limit)
	for _, result := range results[:limit] {
		docs = append(docs, result.Document.Content())
	}
	return docs
}

func (s *Session) checkStopped(emit func(Update) bool) bool {
	if s.stopped.Load() {
		emit(statusUpdate(StatusStopped))
		return true
	}
	return false
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Session) setResults(results []*core.RankedResult) {
	s.mu.Lock()
	s.results = results
	s.mu.Unlock()
}

func (s *Session) appendContent(chunk string) {
	s.mu.Lock()
	s.content.WriteString(chunk)
	s.mu.Unlock()
}
