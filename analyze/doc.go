// Package analyze classifies search queries ahead of retrieval, producing
// the intent, entities, topics, and resolved locations that the search
// engine uses for boosting and the streaming orchestrator reports to
// clients.
package analyze
