package model

// Record is implemented by every persisted entity.
type Record interface {
	RecordID() string
}

// IndexByID returns the index of the first record with the given id, or -1.
func IndexByID[T Record](items []T, id string) int {
	for i, item := range items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}

// FindByID returns the first record with the given id.
func FindByID[T Record](items []T, id string) (T, bool) {
	if i := IndexByID(items, id); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// Filter returns the records for which keep is true, in their original order.
// The result is never nil.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// RemoveIf drops every record for which drop is true and reports how many were removed.
// The slice is filtered in place; the result is never nil.
func RemoveIf[T any](items []T, drop func(T) bool) ([]T, int) {
	kept := items[:0]
	for _, item := range items {
		if !drop(item) {
			kept = append(kept, item)
		}
	}
	removed := len(items) - len(kept)
	// Zero the tail so dropped records are not kept alive by the backing array.
	var zero T
	for i := len(kept); i < len(items); i++ {
		items[i] = zero
	}
	if kept == nil {
		kept = []T{}
	}
	return kept, removed
}

// IDSet is a set of record ids.
type IDSet map[string]struct{}

// Add inserts id into the set.
func (s IDSet) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}
