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
	"errors"
	"log/slog"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/search"
)

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")
)

// defaultMaxContextDocs caps how many ranked results ground the answer.
const defaultMaxContextDocs = 10

// Orchestrator creates streaming sessions over a searcher and a generator.
type Orchestrator struct {
	searcher       *search.Searcher
	generator      ai.Generator
	maxContextDocs int
	logger         *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithMaxContextDocs caps the results passed to the generator as grounding
// context. Default is 10.
func WithMaxContextDocs(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxContextDocs = n
		}
	}
}

// NewOrchestrator creates a streaming orchestrator.
func NewOrchestrator(searcher *search.Searcher, generator ai.Generator, opts ...Option) (*Orchestrator, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	o := &Orchestrator{
		searcher:       searcher,
		generator:      generator,
		maxContextDocs: defaultMaxContextDocs,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "stream")
	return o, nil
}

// NewSession creates a session for the query. The session does nothing
// until its Updates sequence is consumed.
func (o *Orchestrator) NewSession(query *core.SearchQuery) *Session {
	return &Session{
		query:        query,
		orchestrator: o,
		status:       StatusInitializing,
	}
}
