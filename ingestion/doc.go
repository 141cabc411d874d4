// Package ingestion provides the intake pipeline for source documents.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Validating and adding documents to storage
//   - Indexing document text into the keyword index
//   - Enqueueing embedding work for the worker pool
//
// Ingestion never computes embeddings itself: it records the work durably
// and returns, leaving the queue package to process it asynchronously.
package ingestion
