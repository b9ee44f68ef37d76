package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/rpn"
)

// Sentinel errors returned (wrapped) by DB methods.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already exists")
	ErrInvalidRating = errors.New("rating must be between 1 and 10")
	ErrInvalidInput  = errors.New("invalid input")
)

// Backend is a whole-document store. Both docstore.Store and store.Store
// implement it.
type Backend interface {
	// Update loads the document, runs fn, and persists the result only if fn
	// returns nil. fn's error is returned unchanged.
	Update(ctx context.Context, fn func(doc *model.Document) error) error
	// View loads the document and runs fn. Changes are discarded.
	View(ctx context.Context, fn func(doc *model.Document) error) error
}

// DB is the entity query layer.
type DB struct {
	backend    Backend
	now        func() time.Time
	newID      func() string
	newToken   func() string
	thresholds rpn.Thresholds
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the time source for created_at, updated_at and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// WithIDGenerator sets the record id generator.
func WithIDGenerator(fn func() string) Option {
	return func(db *DB) { db.newID = fn }
}

// WithTokenGenerator sets the generator for session, invitation and guest link tokens.
func WithTokenGenerator(fn func() string) Option {
	return func(db *DB) { db.newToken = fn }
}

// WithThresholds sets the RPN thresholds used when an organization has none.
func WithThresholds(t rpn.Thresholds) Option {
	return func(db *DB) { db.thresholds = t }
}

// New returns a DB over backend.
func New(backend Backend, opts ...Option) *DB {
	db := &DB{
		backend:    backend,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      model.NewID,
		newToken:   model.NewToken,
		thresholds: rpn.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Now returns the DB clock's current time.
func (db *DB) Now() time.Time {
	return db.now()
}

// Counts returns the number of records per collection.
func (db *DB) Counts(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	err := db.view(ctx, "counts", func(doc *model.Document) error {
		counts = doc.Counts()
		return nil
	})
	return counts, err
}

// Document returns a snapshot of the whole document.
func (db *DB) Document(ctx context.Context) (*model.Document, error) {
	var out *model.Document
	err := db.view(ctx, "document", func(doc *model.Document) error {
		out = doc
		return nil
	})
	return out, err
}

func (db *DB) update(ctx context.Context, op string, fn func(doc *model.Document) error) error {
	if err := db.backend.Update(ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (db *DB) view(ctx context.Context, op string, fn func(doc *model.Document) error) error {
	if err := db.backend.View(ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func checkRating(field string, v int) error {
	if !rpn.ValidRating(v) {
		return fmt.Errorf("%s %d: %w", field, v, ErrInvalidRating)
	}
	return nil
}

func checkOptionalRating(field string, v *int) error {
	if v == nil {
		return nil
	}
	return checkRating(field, *v)
}
