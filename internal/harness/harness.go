package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/config"
	"github.com/roach88/fmea/internal/docstore"
	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/query"
	"github.com/roach88/fmea/internal/store"
	"github.com/roach88/fmea/internal/testutil"
)

// Harness executes scenario steps against one query.DB.
type Harness struct {
	db     *query.DB
	logger *slog.Logger
	result *Result
}

type backend interface {
	query.Backend
	Close() error
}

// opFunc runs one step. It returns the id of the record the step created or
// targeted and the number of records it removed.
type opFunc func(ctx context.Context, h *Harness, a *argReader) (id string, removed int, err error)

// expectedErrors maps expect_error names to the sentinel the step must wrap.
var expectedErrors = map[string]error{
	"not_found":      query.ErrNotFound,
	"duplicate":      query.ErrDuplicate,
	"invalid_rating": query.ErrInvalidRating,
	"invalid_input":  query.ErrInvalidInput,
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary data directory with a deterministic
// clock and id sequences, so the same scenario always produces the same
// document.
//
// Execution flow:
// 1. Open a fresh store of the scenario's backend
// 2. Execute steps, checking expected errors
// 3. Evaluate assertions against the final state
//
// A step that fails without expect_error aborts the run with an error.
func Run(scenario *Scenario) (*Result, error) {
	result, _, err := run(scenario)
	return result, err
}

// run is Run that also captures the final report snapshot.
func run(scenario *Scenario) (*Result, *ReportSnapshot, error) {
	dir, err := os.MkdirTemp("", "fmea-scenario-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	defer os.RemoveAll(dir)

	b, err := openBackend(scenario.Backend, dir)
	if err != nil {
		return nil, nil, err
	}
	defer b.Close()

	clock := testutil.NewDeterministicClock()
	h := &Harness{
		db: query.New(b,
			query.WithClock(clock.Now),
			query.WithIDGenerator(testutil.NewSequence("id").Next),
			query.WithTokenGenerator(testutil.NewSequence("tok").Next),
		),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		result: NewResult(),
	}

	ctx := context.Background()
	if err := h.executeSteps(ctx, scenario.Steps); err != nil {
		return nil, nil, err
	}

	actx := &AssertionContext{DB: h.db, Ctx: ctx, Refs: h.result.Refs}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}

	snapshot, err := BuildSnapshot(ctx, h.db, scenario.Name, h.result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build report snapshot: %w", err)
	}
	return h.result, snapshot, nil
}

func openBackend(kind, dir string) (backend, error) {
	switch kind {
	case "", config.BackendJSON:
		return docstore.OpenDir(dir)
	case config.BackendSQLite:
		return store.Open(filepath.Join(dir, store.DefaultFileName))
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}

// executeSteps runs all steps in order.
func (h *Harness) executeSteps(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		op, ok := ops[step.Op]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}

		a := &argReader{args: step.Args, refs: h.result.Refs}
		id, removed, err := op(ctx, h, a)
		trace := StepTrace{Op: step.Op, Ref: step.Ref, ID: id, Removed: removed}

		switch {
		case step.ExpectError != "":
			want := expectedErrors[step.ExpectError]
			switch {
			case err == nil:
				h.result.AddError(fmt.Sprintf("steps[%d] %s: expected %s error, got success", i, step.Op, step.ExpectError))
			case !errors.Is(err, want):
				h.result.AddError(fmt.Sprintf("steps[%d] %s: expected %s error, got: %v", i, step.Op, step.ExpectError, err))
			default:
				trace.Error = err.Error()
			}
		case err != nil:
			return fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}

		if err == nil && step.Ref != "" && id != "" {
			h.result.Refs[step.Ref] = id
		}
		h.result.AddStep(trace)

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"id", id,
			"removed", removed,
		)
	}
	return nil
}

var ops = map[string]opFunc{
	"create_user":         createUser,
	"create_organization": createOrganization,
	"create_project":      createProject,
	"create_component":    createComponent,
	"create_failure_mode": createFailureMode,
	"create_cause":        createCause,
	"create_effect":       createEffect,
	"create_control":      createControl,
	"create_action":       createAction,
	"complete_action":     completeAction,
	"delete_user":         deleteOp((*query.DB).DeleteUser),
	"delete_organization": deleteOp((*query.DB).DeleteOrganization),
	"delete_project":      deleteOp((*query.DB).DeleteProject),
	"delete_component":    deleteOp((*query.DB).DeleteComponent),
	"delete_failure_mode": deleteOp((*query.DB).DeleteFailureMode),
	"prune_orphans":       pruneOrphans,
}

func createUser(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	u := model.User{Email: a.str("email"), Name: a.str("name"), Role: a.str("role")}
	if a.err != nil {
		return "", 0, a.err
	}
	u, err := h.db.CreateUser(ctx, u)
	return u.ID, 0, err
}

func createOrganization(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	org := model.Organization{Name: a.str("name"), Slug: a.str("slug")}
	if t := a.sub("thresholds"); t != nil {
		org.Settings.RPNThresholds = &model.RiskThresholds{
			Critical: t.number("critical"),
			High:     t.number("high"),
			Medium:   t.number("medium"),
		}
	}
	owner := a.ref("owner")
	if a.err != nil {
		return "", 0, a.err
	}
	org, err := h.db.CreateOrganization(ctx, org, owner)
	return org.ID, 0, err
}

func createProject(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	p := model.Project{
		Name:           a.str("name"),
		Description:    a.str("description"),
		OrganizationID: a.ref("organization"),
		UserID:         a.ref("user"),
	}
	asset := model.Asset{Name: a.str("asset"), Criticality: a.str("criticality")}
	if a.err != nil {
		return "", 0, a.err
	}
	d, err := h.db.CreateProject(ctx, p, asset)
	return d.ID, 0, err
}

func createComponent(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	c := model.Component{ProjectID: a.ref("project"), Name: a.str("name"), Function: a.str("function")}
	if a.err != nil {
		return "", 0, a.err
	}
	c, err := h.db.CreateComponent(ctx, c)
	return c.ID, 0, err
}

func createFailureMode(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	fm := model.FailureMode{
		ComponentID: a.ref("component"),
		ProjectID:   a.ref("project"),
		FailureMode: a.str("name"),
		ProcessStep: a.str("process_step"),
	}
	if a.err != nil {
		return "", 0, a.err
	}
	fm, err := h.db.CreateFailureMode(ctx, fm)
	return fm.ID, 0, err
}

func createCause(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	c := model.Cause{FailureModeID: a.ref("failure_mode"), Description: a.str("description"), Occurrence: a.number("occurrence")}
	if a.err != nil {
		return "", 0, a.err
	}
	c, err := h.db.CreateCause(ctx, c)
	return c.ID, 0, err
}

func createEffect(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	e := model.Effect{FailureModeID: a.ref("failure_mode"), Description: a.str("description"), Severity: a.number("severity")}
	if a.err != nil {
		return "", 0, a.err
	}
	e, err := h.db.CreateEffect(ctx, e)
	return e.ID, 0, err
}

func createControl(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	c := model.Control{
		FailureModeID: a.ref("failure_mode"),
		Type:          a.str("type"),
		Description:   a.str("description"),
		Detection:     a.number("detection"),
	}
	if a.err != nil {
		return "", 0, a.err
	}
	c, err := h.db.CreateControl(ctx, c)
	return c.ID, 0, err
}

func createAction(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	act := model.Action{
		FailureModeID: a.ref("failure_mode"),
		Description:   a.str("description"),
		Owner:         a.str("owner"),
		Status:        a.str("status"),
	}
	if post := a.sub("post"); post != nil {
		act.PostActionSeverity = post.optNumber("severity")
		act.PostActionOccurrence = post.optNumber("occurrence")
		act.PostActionDetection = post.optNumber("detection")
	}
	if a.err != nil {
		return "", 0, a.err
	}
	act, err := h.db.CreateAction(ctx, act)
	return act.ID, 0, err
}

// completeAction marks an action completed and records its re-assessment.
func completeAction(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
	id := a.ref("target")
	taken := a.str("taken")
	sev, occ, det := a.optNumber("severity"), a.optNumber("occurrence"), a.optNumber("detection")
	if a.err != nil {
		return "", 0, a.err
	}
	_, err := h.db.UpdateAction(ctx, id, func(act *model.Action) {
		act.Status = model.ActionCompleted
		act.ActionTaken = taken
		act.PostActionSeverity = sev
		act.PostActionOccurrence = occ
		act.PostActionDetection = det
	})
	return id, 0, err
}

func deleteOp(del func(*query.DB, context.Context, string) (cascade.Report, error)) opFunc {
	return func(ctx context.Context, h *Harness, a *argReader) (string, int, error) {
		id := a.ref("target")
		if a.err != nil {
			return "", 0, a.err
		}
		report, err := del(h.db, ctx, id)
		return id, report.Total(), err
	}
}

func pruneOrphans(ctx context.Context, h *Harness, _ *argReader) (string, int, error) {
	report, err := h.db.PruneOrphans(ctx)
	return "", report.Total(), err
}

// argReader reads typed step arguments, keeping the first error.
type argReader struct {
	args   map[string]any
	refs   map[string]string
	parent *argReader
	err    error
}

func (r *argReader) fail(format string, args ...any) {
	if r.parent != nil {
		r.parent.fail(format, args...)
		return
	}
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *argReader) str(key string) string {
	switch v := r.args[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r *argReader) number(key string) int {
	switch v := r.args[key].(type) {
	case nil:
		return 0
	case int:
		return v
	default:
		r.fail("arg %q: want an integer, got %T", key, v)
		return 0
	}
}

func (r *argReader) optNumber(key string) *int {
	if _, ok := r.args[key]; !ok {
		return nil
	}
	n := r.number(key)
	return &n
}

// ref resolves a ref-valued argument to the record id. An absent argument is
// the empty id.
func (r *argReader) ref(key string) string {
	name := r.str(key)
	if name == "" {
		return ""
	}
	id, ok := r.refs[name]
	if !ok {
		r.fail("arg %q: unknown ref %q", key, name)
	}
	return id
}

// sub returns a reader over a nested mapping, or nil when key is absent.
// Errors from the nested reader are reported through r.
func (r *argReader) sub(key string) *argReader {
	raw, ok := r.args[key]
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		r.fail("arg %q: want a mapping, got %T", key, raw)
		return nil
	}
	return &argReader{args: m, refs: r.refs, parent: r}
}
