// Package docstore persists the FMEA dataset as one JSON document on disk.
//
// The whole dataset lives in a single file (by default <data-dir>/fmea-data.json)
// shaped as model.Document. Every operation reads the entire file; every
// mutation rewrites it.
//
// # Failure Policy
//
//   - Missing file: initialized with the empty schema on first load.
//   - Unreadable or unparsable file: Load substitutes the empty schema (never
//     merged with partial content) and logs the failure. The bytes on disk are
//     left alone and copied to <path>.corrupt-<hash> so the next save does not
//     destroy them.
//   - Write failure: logged, counted in fmea_store_operations_total, and
//     returned to the caller wrapped as "docstore: save: ...".
//
// # Concurrency
//
// Update serializes read-modify-write cycles with a mutex, removing the
// lost-update race between goroutines of one process. Writes go through a
// temp file, fsync and rename, so a crash mid-write leaves the previous
// document intact.
package docstore
