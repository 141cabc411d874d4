// Package mock provides deterministic test doubles for the ai service
// interfaces, so the pipeline, worker pool, search engine, and streaming
// orchestrator can be tested without external AI services.
package mock
