// Package storage defines the persistence contracts for threadlens:
// source documents, embedding records, and the durable embedding work
// queue. Backend implementations live in subpackages (see storage/badger).
package storage
