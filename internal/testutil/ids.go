package testutil

import (
	"fmt"
	"sync"
)

// Sequence generates predictable ids: "<prefix>-0001", "<prefix>-0002", ...
//
// Golden reports and scenario assertions refer to records by these ids, so
// the same scenario always produces the same document.
//
// Thread-safety: Sequence is safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequence creates a generator. If prefix is empty, "id" is used.
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "id"
	}
	return &Sequence{prefix: prefix}
}

// Next returns the next id.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%04d", s.prefix, s.n)
}

// Reset restarts the sequence at 1.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
