package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/obs"
)

// DefaultFileName is the document file name inside the data directory.
const DefaultFileName = "fmea-data.json"

// BackendName labels this backend in metrics and CLI output.
const BackendName = "json"

// ErrUnreadable is returned by LoadStrict when the document file exists but
// cannot be read or parsed.
var ErrUnreadable = errors.New("docstore: document unreadable")

// Recovery reasons reported to obs.StoreRecoveries.
const (
	recoveryRead  = "read"
	recoveryParse = "parse"
)

// Store persists a model.Document as a single JSON file.
//
// Store is safe for concurrent use within one process: Update holds the write
// lock across the whole load → mutate → save cycle, so two writers can no
// longer overwrite each other's changes. It gives no protection against other
// processes writing the same file; use the SQLite backend for that.
type Store struct {
	path string
	mu   sync.RWMutex
}

// Open returns a Store backed by the file at path, creating the parent
// directory if needed. The file itself is created lazily on first load.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("docstore: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("docstore: create data directory: %w", err)
	}
	return &Store{path: path}, nil
}

// OpenDir returns a Store for DefaultFileName inside dataDir.
func OpenDir(dataDir string) (*Store, error) {
	return Open(filepath.Join(dataDir, DefaultFileName))
}

// Path returns the document file path.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op; it lets Store stand in wherever a closable backend is expected.
func (s *Store) Close() error {
	return nil
}

// Load returns the full document.
//
// Load never fails on storage problems:
//   - missing file: the empty schema is written to disk and returned
//   - unreadable or malformed file: the empty schema is returned, the failure
//     is logged, and the original bytes stay on disk untouched (a copy is
//     also quarantined next to the file)
//
// Collections absent from the file are back-filled as empty. The only error
// returned is ctx.Err().
func (s *Store) Load(ctx context.Context) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(), nil
}

// LoadStrict is Load without recovery: an unreadable or malformed file is an
// error wrapping ErrUnreadable instead of an empty document. A missing file
// loads as the empty schema and is not created.
func (s *Store) LoadStrict(ctx context.Context) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, s.path, err)
	}
	doc.Backfill()
	return doc, nil
}

// Save overwrites the file with doc. Failures are logged and returned.
func (s *Store) Save(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

// Update runs one read-modify-write cycle under the write lock.
// The document is saved only if fn returns nil; fn's error is returned as is.
func (s *Store) Update(ctx context.Context, fn func(doc *model.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

// View loads the document under the read lock and hands it to fn.
// Changes fn makes to the document are not persisted.
func (s *Store) View(ctx context.Context, fn func(doc *model.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.load())
}

func (s *Store) load() *model.Document {
	start := time.Now()
	defer obs.ObserveStore(BackendName, "load", start, nil)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := model.NewDocument()
		if err := s.save(doc); err == nil {
			slog.Info("initialized document store", "path", s.path)
		}
		return doc
	}
	if err != nil {
		slog.Error("read document failed, using empty schema", "path", s.path, "error", err)
		obs.StoreRecoveries.WithLabelValues(recoveryRead).Inc()
		return model.NewDocument()
	}

	doc, err := decode(data)
	if err != nil {
		quarantined := s.quarantine(data)
		slog.Error("parse document failed, using empty schema",
			"path", s.path,
			"quarantine", quarantined,
			"error", err,
		)
		obs.StoreRecoveries.WithLabelValues(recoveryParse).Inc()
		return model.NewDocument()
	}

	if added := doc.Backfill(); len(added) > 0 {
		slog.Debug("back-filled missing collections", "path", s.path, "collections", added)
	}
	if unmodeled := doc.Unmodeled(); len(unmodeled) > 0 {
		slog.Debug("keeping unmodeled entries", "path", s.path, "entries", unmodeled)
	}
	return doc
}

func decode(data []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) save(doc *model.Document) (err error) {
	start := time.Now()
	defer func() { obs.ObserveStore(BackendName, "save", start, err) }()

	doc.Backfill()
	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("docstore: save: %w", err)
	}
	if err = writeFileAtomic(s.path, data); err != nil {
		slog.Error("save document failed", "path", s.path, "error", err)
		return fmt.Errorf("docstore: save: %w", err)
	}
	return nil
}

// quarantine copies unparsable bytes next to the document so a later save
// cannot destroy them. The copy is named by content hash, so repeated loads of
// the same corrupt file produce one copy. Returns the copy's path, or "" when
// the copy could not be written.
func (s *Store) quarantine(data []byte) string {
	sum := sha256.Sum256(data)
	path := fmt.Sprintf("%s.corrupt-%s", s.path, hex.EncodeToString(sum[:6]))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if err := writeFileAtomic(path, data); err != nil {
		slog.Error("quarantine corrupt document failed", "path", path, "error", err)
		return ""
	}
	return path
}

// Encode serializes doc with stable formatting: struct field order,
// two-space indentation, trailing newline.
func Encode(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeFileAtomic writes data to path via temp file → fsync → rename, so
// readers see either the old or the new document, never a partial one.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
