// Package store provides a SQLite-backed implementation of the FMEA document
// store, for deployments where several processes share one dataset.
//
// It exposes the same Load/Save/Update/View contract as the JSON file store in
// internal/docstore. Each record of each collection is stored as one row of the
// records table:
//
//   - collection: the document key ("users", "failureModes", ...)
//   - id: the record id; duplicate ids within a collection keep the first row
//   - position: index in the collection array, preserved across round trips
//   - body: the record's JSON encoding
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - _txlock=immediate: Update takes the write lock before it reads
//
// Unlike the JSON store, database errors are returned to the caller rather
// than replaced by an empty document.
package store
