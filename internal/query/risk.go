package query

import (
	"context"
	"time"

	"github.com/roach88/fmea/internal/model"
)

// createChild appends rec to a failure mode's child collection after checking
// that the failure mode exists.
func createChild[T model.Record](ctx context.Context, db *DB, kind string, col collection[T], failureModeID string, build func(id string, now time.Time) T) (T, error) {
	var out T
	err := db.update(ctx, "create "+kind, func(doc *model.Document) error {
		if !exists(doc.FailureModes, failureModeID) {
			return notFound("failure mode", failureModeID)
		}
		out = build(db.newID(), db.now())
		*col(doc) = append(*col(doc), out)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// CreateCause adds a cause to a failure mode. Occurrence must be 1-10.
func (db *DB) CreateCause(ctx context.Context, c model.Cause) (model.Cause, error) {
	if err := checkRating("occurrence", c.Occurrence); err != nil {
		return model.Cause{}, err
	}
	return createChild(ctx, db, "cause", causes, c.FailureModeID, func(id string, now time.Time) model.Cause {
		c.ID, c.CreatedAt = id, now
		return c
	})
}

// ListCausesByFailureModeID returns the failure mode's causes, oldest first.
func (db *DB) ListCausesByFailureModeID(ctx context.Context, failureModeID string) ([]model.Cause, error) {
	out, err := listWhere(ctx, db, "causes", causes, func(c model.Cause) bool { return c.FailureModeID == failureModeID })
	oldestFirst(out, func(c model.Cause) time.Time { return c.CreatedAt })
	return out, err
}

// UpdateCause applies fn; the failure mode link cannot change.
func (db *DB) UpdateCause(ctx context.Context, id string, fn func(c *model.Cause)) (model.Cause, error) {
	return updateByID(ctx, db, "cause", causes, id, func(_ *model.Document, c *model.Cause) error {
		parent := c.FailureModeID
		fn(c)
		c.FailureModeID = parent
		return checkRating("occurrence", c.Occurrence)
	})
}

// DeleteCause removes the cause with id.
func (db *DB) DeleteCause(ctx context.Context, id string) error {
	return deleteByID(ctx, db, "cause", causes, id)
}

// CreateEffect adds an effect to a failure mode. Severity must be 1-10.
func (db *DB) CreateEffect(ctx context.Context, e model.Effect) (model.Effect, error) {
	if err := checkRating("severity", e.Severity); err != nil {
		return model.Effect{}, err
	}
	return createChild(ctx, db, "effect", effects, e.FailureModeID, func(id string, now time.Time) model.Effect {
		e.ID, e.CreatedAt = id, now
		return e
	})
}

// ListEffectsByFailureModeID returns the failure mode's effects, oldest first.
func (db *DB) ListEffectsByFailureModeID(ctx context.Context, failureModeID string) ([]model.Effect, error) {
	out, err := listWhere(ctx, db, "effects", effects, func(e model.Effect) bool { return e.FailureModeID == failureModeID })
	oldestFirst(out, func(e model.Effect) time.Time { return e.CreatedAt })
	return out, err
}

// UpdateEffect applies fn; the failure mode link cannot change.
func (db *DB) UpdateEffect(ctx context.Context, id string, fn func(e *model.Effect)) (model.Effect, error) {
	return updateByID(ctx, db, "effect", effects, id, func(_ *model.Document, e *model.Effect) error {
		parent := e.FailureModeID
		fn(e)
		e.FailureModeID = parent
		return checkRating("severity", e.Severity)
	})
}

// DeleteEffect removes the effect with id.
func (db *DB) DeleteEffect(ctx context.Context, id string) error {
	return deleteByID(ctx, db, "effect", effects, id)
}

// CreateControl adds a control to a failure mode. Detection must be 1-10;
// an empty type defaults to detection.
func (db *DB) CreateControl(ctx context.Context, c model.Control) (model.Control, error) {
	if c.Type == "" {
		c.Type = model.ControlDetection
	}
	if err := validateControl(c); err != nil {
		return model.Control{}, err
	}
	return createChild(ctx, db, "control", controls, c.FailureModeID, func(id string, now time.Time) model.Control {
		c.ID, c.CreatedAt = id, now
		return c
	})
}

func validateControl(c model.Control) error {
	if !model.ValidControlTypes[c.Type] {
		return invalid("unknown control type %q", c.Type)
	}
	return checkRating("detection", c.Detection)
}

// ListControlsByFailureModeID returns the failure mode's controls, oldest first.
func (db *DB) ListControlsByFailureModeID(ctx context.Context, failureModeID string) ([]model.Control, error) {
	out, err := listWhere(ctx, db, "controls", controls, func(c model.Control) bool { return c.FailureModeID == failureModeID })
	oldestFirst(out, func(c model.Control) time.Time { return c.CreatedAt })
	return out, err
}

// UpdateControl applies fn; the failure mode link cannot change.
func (db *DB) UpdateControl(ctx context.Context, id string, fn func(c *model.Control)) (model.Control, error) {
	return updateByID(ctx, db, "control", controls, id, func(_ *model.Document, c *model.Control) error {
		parent := c.FailureModeID
		fn(c)
		c.FailureModeID = parent
		return validateControl(*c)
	})
}

// DeleteControl removes the control with id.
func (db *DB) DeleteControl(ctx context.Context, id string) error {
	return deleteByID(ctx, db, "control", controls, id)
}

// CreateAction adds a mitigation action to a failure mode. Empty status
// defaults to open; post-action ratings, when given, must be 1-10.
func (db *DB) CreateAction(ctx context.Context, a model.Action) (model.Action, error) {
	if a.Status == "" {
		a.Status = model.ActionOpen
	}
	if err := validateAction(a); err != nil {
		return model.Action{}, err
	}
	return createChild(ctx, db, "action", actions, a.FailureModeID, func(id string, now time.Time) model.Action {
		a.ID = id
		a.CreatedAt, a.UpdatedAt = now, now
		return a
	})
}

func validateAction(a model.Action) error {
	if !model.ValidActionStatuses[a.Status] {
		return invalid("unknown action status %q", a.Status)
	}
	if err := checkOptionalRating("post_action_severity", a.PostActionSeverity); err != nil {
		return err
	}
	if err := checkOptionalRating("post_action_occurrence", a.PostActionOccurrence); err != nil {
		return err
	}
	return checkOptionalRating("post_action_detection", a.PostActionDetection)
}

// ListActionsByFailureModeID returns the failure mode's actions, oldest first.
func (db *DB) ListActionsByFailureModeID(ctx context.Context, failureModeID string) ([]model.Action, error) {
	out, err := listWhere(ctx, db, "actions", actions, func(a model.Action) bool { return a.FailureModeID == failureModeID })
	oldestFirst(out, func(a model.Action) time.Time { return a.CreatedAt })
	return out, err
}

// UpdateAction applies fn and refreshes updated_at; the failure mode link
// cannot change.
func (db *DB) UpdateAction(ctx context.Context, id string, fn func(a *model.Action)) (model.Action, error) {
	return updateByID(ctx, db, "action", actions, id, func(_ *model.Document, a *model.Action) error {
		parent := a.FailureModeID
		fn(a)
		a.FailureModeID = parent
		if err := validateAction(*a); err != nil {
			return err
		}
		a.UpdatedAt = db.now()
		return nil
	})
}

// DeleteAction removes the action with id.
func (db *DB) DeleteAction(ctx context.Context, id string) error {
	return deleteByID(ctx, db, "action", actions, id)
}
