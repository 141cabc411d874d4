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

// Package threadlens assembles the document store, keyword index, work
// queue, and AI services into one handle the command-line tools and
// embedding applications build on.
package threadlens

import (
	"log/slog"
	"path/filepath"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/ai/openai"
	"github.com/openquill/threadlens/ingestion"
	"github.com/openquill/threadlens/lexical"
	"github.com/openquill/threadlens/queue"
	"github.com/openquill/threadlens/search"
	"github.com/openquill/threadlens/storage"
	"github.com/openquill/threadlens/storage/badger"
	"github.com/openquill/threadlens/stream"
)

// Database is the assembled ThreadLens instance: durable storage, keyword
// index, and AI provider, with factories for the pipeline, worker pool,
// searcher, and streaming orchestrator.
type Database struct {
	backend  *badger.Backend
	docRepo  storage.DocumentRepository
	embRepo  storage.EmbeddingRepository
	workRepo storage.QueueRepository
	index    *lexical.Index
	provider ai.Provider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	logger   *slog.Logger
}

// WithAIConfig sets the configuration for the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built AI provider, bypassing the default
// OpenAI-compatible one. Used by tests and embedding applications.
func WithAIProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithDatabaseLogger sets a custom logger.
// Default is slog.Default().
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens (or creates) a ThreadLens instance rooted at dirPath.
// The durable store lives under dirPath/store and the keyword index under
// dirPath/keywords.
func NewDatabase(dirPath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dirPath, "store"), false)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embRepo, err := badger.NewEmbeddingRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	workRepo, err := badger.NewQueueRepository(backend)
	if err != nil {
		embRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	index, err := lexical.OpenIndex(filepath.Join(dirPath, "keywords"), options.logger)
	if err != nil {
		workRepo.Close()
		embRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			index.Close()
			workRepo.Close()
			embRepo.Close()
			docRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		docRepo:  docRepo,
		embRepo:  embRepo,
		workRepo: workRepo,
		index:    index,
		provider: provider,
		logger:   options.logger,
	}, nil
}

// Close releases the AI provider, the keyword index, the repositories, and
// the backing store, in that order.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.index.Close(); err != nil {
		db.logger.Error("error closing keyword index", "err", err)
		return err
	}
	if err := db.workRepo.Close(); err != nil {
		db.logger.Error("error closing queue repository", "err", err)
		return err
	}
	if err := db.embRepo.Close(); err != nil {
		db.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the document store.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

// EmbeddingRepository returns the embedding store.
func (db *Database) EmbeddingRepository() storage.EmbeddingRepository {
	return db.embRepo
}

// QueueRepository returns the durable work queue.
func (db *Database) QueueRepository() storage.QueueRepository {
	return db.workRepo
}

// Index returns the keyword index.
func (db *Database) Index() *lexical.Index {
	return db.index
}

// Provider returns the AI service provider.
func (db *Database) Provider() ai.Provider {
	return db.provider
}

// NewIngestionPipeline creates a pipeline over this database.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.docRepo, db.workRepo, db.index, opts...)
}

// NewWorkerPool creates an embedding worker pool over this database.
func (db *Database) NewWorkerPool(config queue.Config, opts ...queue.Option) (*queue.Pool, error) {
	return queue.NewPool(db.workRepo, db.docRepo, db.embRepo, db.provider, config, opts...)
}

// NewSearcher creates a hybrid searcher over this database.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.docRepo, db.embRepo, db.index, db.provider, opts...)
}

// NewStreamOrchestrator creates a streaming orchestrator over this
// database, building its searcher internally.
func (db *Database) NewStreamOrchestrator(opts ...stream.Option) (*stream.Orchestrator, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return nil, err
	}
	return stream.NewOrchestrator(searcher, db.provider.Generator(), opts...)
}
