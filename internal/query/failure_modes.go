package query

import (
	"context"
	"time"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
)

// CreateFailureMode adds a failure mode under a component or, for legacy
// data, directly under a project. With a component the project id is taken
// from the component. Empty status defaults to open.
func (db *DB) CreateFailureMode(ctx context.Context, fm model.FailureMode) (model.FailureMode, error) {
	if fm.Status == "" {
		fm.Status = model.FailureModeStatusOpen
	}
	err := db.update(ctx, "create failure mode", func(doc *model.Document) error {
		switch {
		case fm.ComponentID != "":
			c, ok := model.FindByID(doc.Components, fm.ComponentID)
			if !ok {
				return notFound("component", fm.ComponentID)
			}
			fm.ProjectID = c.ProjectID
		case fm.ProjectID != "":
			if !exists(doc.Projects, fm.ProjectID) {
				return notFound("project", fm.ProjectID)
			}
		default:
			return invalid("failure mode needs a component or a project")
		}
		now := db.now()
		fm.ID = db.newID()
		fm.CreatedAt, fm.UpdatedAt = now, now
		doc.FailureModes = append(doc.FailureModes, fm)
		return nil
	})
	if err != nil {
		return model.FailureMode{}, err
	}
	return fm, nil
}

// GetFailureModeByID returns the failure mode with id.
func (db *DB) GetFailureModeByID(ctx context.Context, id string) (model.FailureMode, error) {
	return getByID(ctx, db, "failure mode", failureModes, id)
}

// ListFailureModesByComponentID returns the component's failure modes, newest first.
func (db *DB) ListFailureModesByComponentID(ctx context.Context, componentID string) ([]model.FailureMode, error) {
	out, err := listWhere(ctx, db, "failure modes", failureModes, func(fm model.FailureMode) bool {
		return fm.ComponentID == componentID
	})
	newestFirst(out, failureModeCreated)
	return out, err
}

// ListFailureModesByProjectID returns the failure modes attached to the
// project directly or through one of its components, newest first.
func (db *DB) ListFailureModesByProjectID(ctx context.Context, projectID string) ([]model.FailureMode, error) {
	out := []model.FailureMode{}
	err := db.view(ctx, "list failure modes", func(doc *model.Document) error {
		ids := model.ProjectFailureModeIDs(doc, projectID)
		out = model.Filter(doc.FailureModes, func(fm model.FailureMode) bool { return ids.Has(fm.ID) })
		return nil
	})
	newestFirst(out, failureModeCreated)
	return out, err
}

func failureModeCreated(fm model.FailureMode) time.Time { return fm.CreatedAt }

// UpdateFailureMode applies fn and refreshes updated_at. Moving the failure
// mode to another component also moves it to that component's project.
func (db *DB) UpdateFailureMode(ctx context.Context, id string, fn func(fm *model.FailureMode)) (model.FailureMode, error) {
	return updateByID(ctx, db, "failure mode", failureModes, id, func(doc *model.Document, fm *model.FailureMode) error {
		fn(fm)
		if fm.ComponentID != "" {
			c, ok := model.FindByID(doc.Components, fm.ComponentID)
			if !ok {
				return notFound("component", fm.ComponentID)
			}
			fm.ProjectID = c.ProjectID
		}
		fm.UpdatedAt = db.now()
		return nil
	})
}

// DeleteFailureMode removes the failure mode with its causes, effects,
// controls and actions.
func (db *DB) DeleteFailureMode(ctx context.Context, id string) (cascade.Report, error) {
	return cascadeDelete(ctx, db, "failure mode", failureModes, id, cascade.FailureMode)
}

// GetFailureModeGraph returns the failure mode with everything attached to it.
func (db *DB) GetFailureModeGraph(ctx context.Context, id string) (model.FailureModeGraph, error) {
	var out model.FailureModeGraph
	err := db.view(ctx, "get failure mode graph", func(doc *model.Document) error {
		fm, ok := model.FindByID(doc.FailureModes, id)
		if !ok {
			return notFound("failure mode", id)
		}
		out = model.GraphOf(doc, fm)
		return nil
	})
	return out, err
}

// ListFailureModeGraphsByProjectID returns the graph of every failure mode of
// the project, newest first.
func (db *DB) ListFailureModeGraphsByProjectID(ctx context.Context, projectID string) ([]model.FailureModeGraph, error) {
	out := []model.FailureModeGraph{}
	err := db.view(ctx, "list failure mode graphs", func(doc *model.Document) error {
		out = projectGraphs(doc, projectID)
		return nil
	})
	return out, err
}

func projectGraphs(doc *model.Document, projectID string) []model.FailureModeGraph {
	ids := model.ProjectFailureModeIDs(doc, projectID)
	fms := model.Filter(doc.FailureModes, func(fm model.FailureMode) bool { return ids.Has(fm.ID) })
	newestFirst(fms, failureModeCreated)

	out := make([]model.FailureModeGraph, 0, len(fms))
	for _, fm := range fms {
		out = append(out, model.GraphOf(doc, fm))
	}
	return out
}
