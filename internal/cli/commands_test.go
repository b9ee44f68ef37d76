package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmea/internal/docstore"
	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/query"
)

func seedProject(t *testing.T, ws *workspace) string {
	t.Helper()
	var projectID string
	ws.seed(t, func(ctx context.Context, db *query.DB) {
		p, err := db.CreateProject(ctx, model.Project{Name: "Cooling water pump"}, model.Asset{})
		require.NoError(t, err)
		c, err := db.CreateComponent(ctx, model.Component{ProjectID: p.ID, Name: "Seal"})
		require.NoError(t, err)
		fm, err := db.CreateFailureMode(ctx, model.FailureMode{ComponentID: c.ID, FailureMode: "External leak"})
		require.NoError(t, err)
		_, err = db.CreateCause(ctx, model.Cause{FailureModeID: fm.ID, Occurrence: 6})
		require.NoError(t, err)
		_, err = db.CreateEffect(ctx, model.Effect{FailureModeID: fm.ID, Severity: 7})
		require.NoError(t, err)
		_, err = db.CreateControl(ctx, model.Control{FailureModeID: fm.ID, Detection: 3})
		require.NoError(t, err)
		projectID = p.ID
	})
	return projectID
}

func TestCheck_Clean(t *testing.T) {
	ws := newWorkspace(t)
	seedProject(t, ws)

	out, _, err := ws.run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No dangling references.")
}

func TestCheck_FindsAndPrunes(t *testing.T) {
	ws := newWorkspace(t)
	s := ws.backendForTest(t)
	require.NoError(t, s.Update(context.Background(), func(doc *model.Document) error {
		doc.Causes = append(doc.Causes, model.Cause{ID: "cause-x", FailureModeID: "ghost", Occurrence: 2})
		return nil
	}))

	out, _, err := ws.run(t, "check")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "causes/cause-x: failure_mode_id -> ghost (missing)")

	out, _, err = ws.run(t, "check", "--prune")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 records")

	_, _, err = ws.run(t, "check")
	assert.NoError(t, err)
}

func TestMigrate_JSONToSQLite(t *testing.T) {
	ws := newWorkspace(t)
	seedProject(t, ws)

	out, _, err := ws.run(t, "migrate", "--to", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "failureModes: 1")

	out, _, err = ws.run(t, "--backend", "sqlite", "--format", "json", "dump", "--counts")
	require.NoError(t, err)
	var resp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data[model.CollectionProjects])
	assert.Equal(t, 1, resp.Data[model.CollectionControls])

	_, _, err = ws.run(t, "migrate", "--to", "sqlite")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "target is no longer empty")
	_, _, err = ws.run(t, "migrate", "--to", "sqlite", "--force")
	assert.NoError(t, err)

	_, _, err = ws.run(t, "migrate", "--to", "json")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "same backend")
}

func TestRPN(t *testing.T) {
	ws := newWorkspace(t)
	projectID := seedProject(t, ws)

	out, _, err := ws.run(t, "rpn", projectID)
	require.NoError(t, err)
	assert.Contains(t, out, "Project: Cooling water pump")
	assert.Regexp(t, `(?m)^126\s+high\s+-\s+high\s+0\s+External leak$`, out)

	out, _, err = ws.run(t, "--format", "json", "rpn", projectID)
	require.NoError(t, err)
	var resp struct {
		Data query.RiskReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 126, resp.Data.Summary.HighestRPN)
	require.Len(t, resp.Data.Assessments, 1)
	assert.Equal(t, "External leak", resp.Data.Assessments[0].FailureMode)

	_, _, err = ws.run(t, "rpn", "missing")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUserAddAndSessionsPurge(t *testing.T) {
	ws := newWorkspace(t)

	out, _, err := ws.run(t, "user", "add", "--email", "Ada@Example.com", "--name", "Ada", "--password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "<ada@example.com> (standard)")
	assert.NotContains(t, out, "$2a$")

	_, _, err = ws.run(t, "user", "add", "--email", "ada@example.com", "--password", "other")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	t.Setenv(PasswordEnv, "")
	_, _, err = ws.run(t, "user", "add", "--email", "bob@example.com")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, _, err = ws.run(t, "sessions", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 expired sessions")
}

func TestMigrate_ReportsCopiedCounts(t *testing.T) {
	ws := newWorkspace(t)
	s := ws.backendForTest(t)
	require.NoError(t, s.Update(context.Background(), func(doc *model.Document) error {
		doc.Tools = append(doc.Tools,
			model.Tool{ID: "tool-1", Name: "Fault tree"},
			model.Tool{ID: "tool-1", Name: "Fault tree copy"},
		)
		return nil
	}))

	out, _, err := ws.run(t, "--format", "json", "migrate", "--to", "sqlite")
	require.NoError(t, err)
	var resp struct {
		Data MigrateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Counts[model.CollectionTools], "duplicate id is not copied")
}

func TestMigrate_RefusesCorruptSource(t *testing.T) {
	ws := newWorkspace(t)
	seedProject(t, ws)
	_, _, err := ws.run(t, "migrate", "--to", "sqlite")
	require.NoError(t, err)

	path := filepath.Join(ws.dataDir(), docstore.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"projects": [`), 0o600))

	_, _, err = ws.run(t, "migrate", "--to", "sqlite", "--force")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, docstore.ErrUnreadable)

	out, _, err := ws.run(t, "--backend", "sqlite", "--format", "json", "dump", "--counts")
	require.NoError(t, err)
	var resp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data[model.CollectionProjects], "target left untouched")
}

func TestExecute_ErrorResponses(t *testing.T) {
	ws := newWorkspace(t)
	s := ws.backendForTest(t)
	require.NoError(t, s.Update(context.Background(), func(doc *model.Document) error {
		doc.Causes = append(doc.Causes, model.Cause{ID: "cause-x", FailureModeID: "ghost", Occurrence: 2})
		return nil
	}))

	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{"missing project", []string{"rpn", "missing"}, ExitCommandError, ErrCodeNotFound},
		{"dangling references", []string{"check"}, ExitFailure, ErrCodeIntegrity},
		{"bad backend", []string{"--backend", "postgres", "dump"}, ExitCommandError, ErrCodeConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := ws.exec(append([]string{"--format", "json"}, tt.args...)...)
			assert.Equal(t, tt.wantExit, code)
			assert.NotContains(t, errOut, "fmea: ")

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout holds exactly one response: %s", out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("check details list orphans", func(t *testing.T) {
		_, out, _ := ws.exec("--format", "json", "check")
		var resp struct {
			Error struct {
				Details CheckResult `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Error.Details.Orphans, 1)
		assert.Equal(t, "cause-x", resp.Error.Details.Orphans[0].ID)
	})

	t.Run("text goes to stderr", func(t *testing.T) {
		code, out, errOut := ws.exec("rpn", "missing")
		assert.Equal(t, ExitCommandError, code)
		assert.Empty(t, out)
		assert.Contains(t, errOut, "fmea: project missing: ")
		assert.Contains(t, errOut, "not found")
	})
}
