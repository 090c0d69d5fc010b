// Package storage defines the persistence contracts for the retrieval
// subsystem: embedding records, recognized entities and their mentions,
// the durable update queue, index descriptors, the hybrid search log
// and the source content corpus.
//
// Concrete implementations live in subpackages (storage/badger).
// Values are serialized with msgpack; see serialization.go.
package storage
