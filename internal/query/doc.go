// Package query is the typed entity layer over the FMEA document.
//
// Each DB method performs exactly one read-modify-write (Backend.Update) or
// one read (Backend.View) of the whole document. Lookups return ErrNotFound
// (wrapped, test with errors.Is) instead of a nil record; list methods return
// empty, non-nil slices. Deletes cascade through internal/cascade inside the
// same Update, so no delete leaves orphans behind.
//
// Record ids come from the id generator (ULIDs by default), timestamps from
// the clock (time.Now in UTC by default). Both are injectable for tests.
package query
