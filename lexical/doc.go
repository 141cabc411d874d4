// Package lexical maintains the keyword index that backs the text leg of
// hybrid search. Documents are indexed at ingestion time; scores returned
// from Search are raw BM25-style relevance values and are normalized by the
// search engine before merging.
package lexical
