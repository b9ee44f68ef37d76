package cli

import (
	"context"
	"fmt"

	"github.com/roach88/fmea/internal/config"
	"github.com/roach88/fmea/internal/docstore"
	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/query"
	"github.com/roach88/fmea/internal/store"
)

// backend is what the CLI needs from a document store.
type backend interface {
	query.Backend
	Load(ctx context.Context) (*model.Document, error)
	Save(ctx context.Context, doc *model.Document) error
	Path() string
	Close() error
}

// openBackend opens the named backend inside dataDir.
func openBackend(kind, dataDir string) (backend, error) {
	switch kind {
	case config.BackendJSON:
		return docstore.OpenDir(dataDir)
	case config.BackendSQLite:
		return store.OpenDir(dataDir)
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

// env is an opened store with the query layer on top.
type env struct {
	backend backend
	db      *query.DB
}

func (o *RootOptions) openEnv() (*env, error) {
	b, err := openBackend(o.Config.Backend, o.Config.DataDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err).WithCode(ErrCodeStore)
	}
	return &env{
		backend: b,
		db:      query.New(b, query.WithThresholds(o.Config.Thresholds)),
	}, nil
}

func (e *env) Close() error {
	return e.backend.Close()
}
