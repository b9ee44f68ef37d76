package query

import (
	"context"
	"sort"
	"strings"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
)

// CreateComponent adds a component to its project. An Order of 0 places the
// component after the project's existing components.
func (db *DB) CreateComponent(ctx context.Context, c model.Component) (model.Component, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return model.Component{}, invalid("component name is required")
	}
	if c.Order < 0 {
		return model.Component{}, invalid("component order must not be negative")
	}
	err := db.update(ctx, "create component", func(doc *model.Document) error {
		if !exists(doc.Projects, c.ProjectID) {
			return notFound("project", c.ProjectID)
		}
		if c.Order == 0 {
			c.Order = nextOrder(doc, c.ProjectID)
		}
		now := db.now()
		c.ID = db.newID()
		c.CreatedAt, c.UpdatedAt = now, now
		doc.Components = append(doc.Components, c)
		return nil
	})
	if err != nil {
		return model.Component{}, err
	}
	return c, nil
}

func nextOrder(doc *model.Document, projectID string) int {
	next := 0
	for _, c := range doc.Components {
		if c.ProjectID == projectID && c.Order+1 > next {
			next = c.Order + 1
		}
	}
	return next
}

// GetComponentByID returns the component with id.
func (db *DB) GetComponentByID(ctx context.Context, id string) (model.Component, error) {
	return getByID(ctx, db, "component", components, id)
}

// ListComponentsByProjectID returns the project's components by order, then
// creation time.
func (db *DB) ListComponentsByProjectID(ctx context.Context, projectID string) ([]model.Component, error) {
	out, err := listWhere(ctx, db, "components", components, func(c model.Component) bool {
		return c.ProjectID == projectID
	})
	sortComponents(out)
	return out, err
}

func sortComponents(cs []model.Component) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Order != cs[j].Order {
			return cs[i].Order < cs[j].Order
		}
		return cs[i].CreatedAt.Before(cs[j].CreatedAt)
	})
}

// UpdateComponent applies fn and refreshes updated_at. A component cannot be
// moved to another project.
func (db *DB) UpdateComponent(ctx context.Context, id string, fn func(c *model.Component)) (model.Component, error) {
	return updateByID(ctx, db, "component", components, id, func(_ *model.Document, c *model.Component) error {
		projectID := c.ProjectID
		fn(c)
		c.ProjectID = projectID
		c.UpdatedAt = db.now()
		return nil
	})
}

// ReorderComponents sets the order of the project's components to their
// position in ids. ids must name every component of the project exactly once.
func (db *DB) ReorderComponents(ctx context.Context, projectID string, ids []string) ([]model.Component, error) {
	out := []model.Component{}
	err := db.update(ctx, "reorder components", func(doc *model.Document) error {
		if !exists(doc.Projects, projectID) {
			return notFound("project", projectID)
		}
		owned := model.ProjectComponentIDs(doc, projectID)
		if len(ids) != len(owned) {
			return invalid("reorder needs all %d components of the project, got %d", len(owned), len(ids))
		}
		position := make(map[string]int, len(ids))
		for i, id := range ids {
			if !owned.Has(id) {
				return notFound("component", id)
			}
			if _, dup := position[id]; dup {
				return invalid("component %q listed twice", id)
			}
			position[id] = i
		}

		now := db.now()
		for i := range doc.Components {
			c := &doc.Components[i]
			if pos, ok := position[c.ID]; ok && c.ProjectID == projectID {
				c.Order = pos
				c.UpdatedAt = now
				out = append(out, *c)
			}
		}
		return nil
	})
	sortComponents(out)
	return out, err
}

// DeleteComponent removes the component, its failure modes and their causes,
// effects, controls and actions.
func (db *DB) DeleteComponent(ctx context.Context, id string) (cascade.Report, error) {
	return cascadeDelete(ctx, db, "component", components, id, cascade.Component)
}
