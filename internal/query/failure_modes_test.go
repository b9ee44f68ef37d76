package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmea/internal/model"
)

func TestCreateFailureMode(t *testing.T) {
	e := newTestEnv(t)
	p := e.project(t, "Pump")
	c := e.component(t, p.ID, "Seal")

	fm := e.failureMode(t, c.ID, "Leak")
	assert.Equal(t, p.ID, fm.ProjectID, "project id is taken from the component")
	assert.Equal(t, model.FailureModeStatusOpen, fm.Status)

	legacy, err := e.db.CreateFailureMode(e.ctx, model.FailureMode{ProjectID: p.ID, FailureMode: "Noise"})
	require.NoError(t, err)
	assert.Empty(t, legacy.ComponentID)

	_, err = e.db.CreateFailureMode(e.ctx, model.FailureMode{ComponentID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.db.CreateFailureMode(e.ctx, model.FailureMode{ProjectID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.db.CreateFailureMode(e.ctx, model.FailureMode{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListFailureModes(t *testing.T) {
	e := newTestEnv(t)
	p := e.project(t, "Pump")
	c := e.component(t, p.ID, "Seal")
	first := e.failureMode(t, c.ID, "Leak")
	second := e.failureMode(t, c.ID, "Wear")
	legacy, err := e.db.CreateFailureMode(e.ctx, model.FailureMode{ProjectID: p.ID, FailureMode: "Noise"})
	require.NoError(t, err)
	e.failureMode(t, e.component(t, e.project(t, "Fan").ID, "Blade").ID, "Crack")

	byComponent, err := e.db.ListFailureModesByComponentID(e.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, byComponent, 2)
	assert.Equal(t, second.ID, byComponent[0].ID, "newest first")
	assert.Equal(t, first.ID, byComponent[1].ID)

	byProject, err := e.db.ListFailureModesByProjectID(e.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, byProject, 3)
	assert.Equal(t, legacy.ID, byProject[0].ID)
}

func TestUpdateFailureMode_MovesWithComponent(t *testing.T) {
	e := newTestEnv(t)
	p1 := e.project(t, "Pump")
	p2 := e.project(t, "Fan")
	c1 := e.component(t, p1.ID, "Seal")
	c2 := e.component(t, p2.ID, "Blade")
	fm := e.failureMode(t, c1.ID, "Leak")

	moved, err := e.db.UpdateFailureMode(e.ctx, fm.ID, func(fm *model.FailureMode) { fm.ComponentID = c2.ID })
	require.NoError(t, err)
	assert.Equal(t, p2.ID, moved.ProjectID)

	_, err = e.db.UpdateFailureMode(e.ctx, fm.ID, func(fm *model.FailureMode) { fm.ComponentID = "missing" })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRiskChildren_Ratings(t *testing.T) {
	e := newTestEnv(t)
	fm := e.failureMode(t, e.component(t, e.project(t, "Pump").ID, "Seal").ID, "Leak")

	_, err := e.db.CreateCause(e.ctx, model.Cause{FailureModeID: fm.ID, Occurrence: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = e.db.CreateEffect(e.ctx, model.Effect{FailureModeID: fm.ID, Severity: 11})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = e.db.CreateControl(e.ctx, model.Control{FailureModeID: fm.ID, Detection: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = e.db.CreateControl(e.ctx, model.Control{FailureModeID: fm.ID, Type: "magic", Detection: 3})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.db.CreateAction(e.ctx, model.Action{FailureModeID: fm.ID, PostActionSeverity: intPtr(12)})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = e.db.CreateAction(e.ctx, model.Action{FailureModeID: fm.ID, Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.db.CreateCause(e.ctx, model.Cause{FailureModeID: "missing", Occurrence: 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRiskChildren_CRUD(t *testing.T) {
	e := newTestEnv(t)
	fm := e.failureMode(t, e.component(t, e.project(t, "Pump").ID, "Seal").ID, "Leak")

	cause, err := e.db.CreateCause(e.ctx, model.Cause{FailureModeID: fm.ID, Description: "Worn face", Occurrence: 5})
	require.NoError(t, err)
	effect, err := e.db.CreateEffect(e.ctx, model.Effect{FailureModeID: fm.ID, Description: "Spill", Severity: 8})
	require.NoError(t, err)
	control, err := e.db.CreateControl(e.ctx, model.Control{FailureModeID: fm.ID, Description: "Drip tray check", Detection: 6})
	require.NoError(t, err)
	assert.Equal(t, model.ControlDetection, control.Type)
	action, err := e.db.CreateAction(e.ctx, model.Action{FailureModeID: fm.ID, Description: "Fit double seal"})
	require.NoError(t, err)
	assert.Equal(t, model.ActionOpen, action.Status)

	cause, err = e.db.UpdateCause(e.ctx, cause.ID, func(c *model.Cause) { c.Occurrence = 3 })
	require.NoError(t, err)
	assert.Equal(t, 3, cause.Occurrence)
	_, err = e.db.UpdateEffect(e.ctx, effect.ID, func(e *model.Effect) { e.Severity = 0 })
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = e.db.UpdateControl(e.ctx, control.ID, func(c *model.Control) { c.Type = model.ControlPrevention })
	require.NoError(t, err)
	action, err = e.db.UpdateAction(e.ctx, action.ID, func(a *model.Action) {
		a.Status = model.ActionCompleted
		a.PostActionSeverity, a.PostActionOccurrence, a.PostActionDetection = intPtr(8), intPtr(1), intPtr(6)
	})
	require.NoError(t, err)
	assert.True(t, action.UpdatedAt.After(action.CreatedAt))

	g, err := e.db.GetFailureModeGraph(e.ctx, fm.ID)
	require.NoError(t, err)
	assert.Len(t, g.Causes, 1)
	assert.Len(t, g.Effects, 1)
	assert.Equal(t, 8, g.Effects[0].Severity, "failed update left the effect unchanged")
	assert.Equal(t, model.ControlPrevention, g.Controls[0].Type)
	assert.Equal(t, 8, *g.Actions[0].PostActionSeverity)

	require.NoError(t, e.db.DeleteCause(e.ctx, cause.ID))
	require.NoError(t, e.db.DeleteEffect(e.ctx, effect.ID))
	require.NoError(t, e.db.DeleteControl(e.ctx, control.ID))
	require.NoError(t, e.db.DeleteAction(e.ctx, action.ID))
	assert.ErrorIs(t, e.db.DeleteAction(e.ctx, action.ID), ErrNotFound)

	causes, err := e.db.ListCausesByFailureModeID(e.ctx, fm.ID)
	require.NoError(t, err)
	assert.Empty(t, causes)
	assert.NotNil(t, causes)
}

func TestDeleteFailureMode(t *testing.T) {
	e := newTestEnv(t)
	fm := e.failureMode(t, e.component(t, e.project(t, "Pump").ID, "Seal").ID, "Leak")
	_, err := e.db.CreateCause(e.ctx, model.Cause{FailureModeID: fm.ID, Occurrence: 5})
	require.NoError(t, err)
	_, err = e.db.CreateEffect(e.ctx, model.Effect{FailureModeID: fm.ID, Severity: 5})
	require.NoError(t, err)
	_, err = e.db.CreateControl(e.ctx, model.Control{FailureModeID: fm.ID, Detection: 5})
	require.NoError(t, err)
	_, err = e.db.CreateAction(e.ctx, model.Action{FailureModeID: fm.ID})
	require.NoError(t, err)

	report, err := e.db.DeleteFailureMode(e.ctx, fm.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Total())

	_, err = e.db.GetFailureModeGraph(e.ctx, fm.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, list := range []func() (int, error){
		func() (int, error) { l, err := e.db.ListCausesByFailureModeID(e.ctx, fm.ID); return len(l), err },
		func() (int, error) { l, err := e.db.ListEffectsByFailureModeID(e.ctx, fm.ID); return len(l), err },
		func() (int, error) { l, err := e.db.ListControlsByFailureModeID(e.ctx, fm.ID); return len(l), err },
		func() (int, error) { l, err := e.db.ListActionsByFailureModeID(e.ctx, fm.ID); return len(l), err },
	} {
		n, err := list()
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}
