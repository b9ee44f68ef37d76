package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fmea/internal/docstore"
	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/store"
	"github.com/roach88/fmea/internal/testutil"
)

// testEnv bundles a DB with the fakes driving it.
type testEnv struct {
	db    *DB
	clock *testutil.DeterministicClock
	ctx   context.Context
}

func newJSONBackend(t *testing.T) Backend {
	t.Helper()
	s, err := docstore.OpenDir(t.TempDir())
	require.NoError(t, err)
	return s
}

func newSQLiteBackend(t *testing.T) Backend {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "fmea.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// backends lists every Backend implementation tests can run against.
var backends = map[string]func(t *testing.T) Backend{
	"json":   newJSONBackend,
	"sqlite": newSQLiteBackend,
}

func newTestEnvWith(t *testing.T, backend Backend) *testEnv {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	db := New(backend,
		WithClock(clock.Now),
		WithIDGenerator(testutil.NewSequence("id").Next),
		WithTokenGenerator(testutil.NewSequence("tok").Next),
	)
	return &testEnv{db: db, clock: clock, ctx: context.Background()}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, newJSONBackend(t))
}

func (e *testEnv) user(t *testing.T, email string) model.User {
	t.Helper()
	u, err := e.db.CreateUser(e.ctx, model.User{Email: email, Name: email})
	require.NoError(t, err)
	return u
}

func (e *testEnv) project(t *testing.T, name string) ProjectDetail {
	t.Helper()
	p, err := e.db.CreateProject(e.ctx, model.Project{Name: name}, model.Asset{Name: name + " asset"})
	require.NoError(t, err)
	return p
}

func (e *testEnv) component(t *testing.T, projectID, name string) model.Component {
	t.Helper()
	c, err := e.db.CreateComponent(e.ctx, model.Component{ProjectID: projectID, Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) failureMode(t *testing.T, componentID, name string) model.FailureMode {
	t.Helper()
	fm, err := e.db.CreateFailureMode(e.ctx, model.FailureMode{ComponentID: componentID, FailureMode: name})
	require.NoError(t, err)
	return fm
}

func intPtr(v int) *int { return &v }
