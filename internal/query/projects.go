package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
)

// ProjectDetail is a project with its asset attached. Asset is nil when the
// project's asset record is missing.
type ProjectDetail struct {
	model.Project
	Asset *model.Asset `json:"asset,omitempty"`
}

func detailOf(doc *model.Document, p model.Project) ProjectDetail {
	d := ProjectDetail{Project: p}
	if a, ok := model.FindByID(doc.Assets, p.AssetID); ok {
		a.Standards = a.Standards.Normalize()
		d.Asset = &a
	}
	return d
}

// CreateProject stores the project together with a new asset and returns
// both. Empty status defaults to active. When OrganizationID is set the
// organization must exist.
func (db *DB) CreateProject(ctx context.Context, p model.Project, a model.Asset) (ProjectDetail, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ProjectDetail{}, invalid("project name is required")
	}
	if p.Status == "" {
		p.Status = model.ProjectStatusActive
	}
	if a.Name == "" {
		a.Name = p.Name
	}
	if a.Criticality != "" && !model.ValidCriticalities[a.Criticality] {
		return ProjectDetail{}, invalid("unknown criticality %q", a.Criticality)
	}
	a.Standards = a.Standards.Normalize()

	var out ProjectDetail
	err := db.update(ctx, "create project", func(doc *model.Document) error {
		if p.OrganizationID != "" && !exists(doc.Organizations, p.OrganizationID) {
			return notFound("organization", p.OrganizationID)
		}
		now := db.now()
		a.ID = db.newID()
		a.CreatedAt, a.UpdatedAt = now, now
		doc.Assets = append(doc.Assets, a)

		p.ID = db.newID()
		p.AssetID = a.ID
		if p.CreatedBy == "" {
			p.CreatedBy = p.UserID
		}
		p.CreatedAt, p.UpdatedAt = now, now
		doc.Projects = append(doc.Projects, p)

		asset := a
		out = ProjectDetail{Project: p, Asset: &asset}
		return nil
	})
	if err != nil {
		return ProjectDetail{}, err
	}
	return out, nil
}

// GetProjectByID returns the project with its asset.
func (db *DB) GetProjectByID(ctx context.Context, id string) (ProjectDetail, error) {
	var out ProjectDetail
	err := db.view(ctx, "get project", func(doc *model.Document) error {
		p, ok := model.FindByID(doc.Projects, id)
		if !ok {
			return notFound("project", id)
		}
		out = detailOf(doc, p)
		return nil
	})
	return out, err
}

// ListProjectsByOrganizationID returns the organization's projects with their
// assets, newest first.
func (db *DB) ListProjectsByOrganizationID(ctx context.Context, orgID string) ([]ProjectDetail, error) {
	return db.listProjects(ctx, func(_ *model.Document, p model.Project) bool {
		return p.OrganizationID == orgID
	})
}

// ListProjectsByUserID returns the projects the user owns or was added to as
// a project member, with their assets, newest first.
func (db *DB) ListProjectsByUserID(ctx context.Context, userID string) ([]ProjectDetail, error) {
	return db.listProjects(ctx, func(doc *model.Document, p model.Project) bool {
		if p.UserID == userID {
			return true
		}
		for _, m := range doc.ProjectMembers {
			if m.ProjectID == p.ID && m.UserID == userID {
				return true
			}
		}
		return false
	})
}

func (db *DB) listProjects(ctx context.Context, keep func(*model.Document, model.Project) bool) ([]ProjectDetail, error) {
	out := []ProjectDetail{}
	err := db.view(ctx, "list projects", func(doc *model.Document) error {
		for _, p := range doc.Projects {
			if keep(doc, p) {
				out = append(out, detailOf(doc, p))
			}
		}
		return nil
	})
	newestFirst(out, func(d ProjectDetail) time.Time { return d.CreatedAt })
	return out, err
}

// UpdateProject applies fn and refreshes updated_at. The asset link cannot be
// changed this way.
func (db *DB) UpdateProject(ctx context.Context, id string, fn func(p *model.Project)) (model.Project, error) {
	return updateByID(ctx, db, "project", projects, id, func(doc *model.Document, p *model.Project) error {
		assetID := p.AssetID
		fn(p)
		p.AssetID = assetID
		if p.OrganizationID != "" && !exists(doc.Organizations, p.OrganizationID) {
			return notFound("organization", p.OrganizationID)
		}
		p.UpdatedAt = db.now()
		return nil
	})
}

// UpdateAsset applies fn, normalizes standards and refreshes updated_at.
func (db *DB) UpdateAsset(ctx context.Context, id string, fn func(a *model.Asset)) (model.Asset, error) {
	return updateByID(ctx, db, "asset", assets, id, func(_ *model.Document, a *model.Asset) error {
		fn(a)
		if a.Criticality != "" && !model.ValidCriticalities[a.Criticality] {
			return invalid("unknown criticality %q", a.Criticality)
		}
		a.Standards = a.Standards.Normalize()
		a.UpdatedAt = db.now()
		return nil
	})
}

// DeleteProject removes the project and everything under it: failure modes
// (direct or through a component) with their children, components, the
// asset, project members and guest links.
func (db *DB) DeleteProject(ctx context.Context, id string) (cascade.Report, error) {
	return cascadeDelete(ctx, db, "project", projects, id, cascade.Project)
}

// AddProjectMember grants userID access to the project. An empty role
// defaults to editor.
func (db *DB) AddProjectMember(ctx context.Context, projectID, userID, role string) (model.ProjectMember, error) {
	if role == "" {
		role = model.DefaultProjectMemberRole
	}
	if !model.ValidOrgRoles[role] {
		return model.ProjectMember{}, invalid("unknown project role %q", role)
	}
	var m model.ProjectMember
	err := db.update(ctx, "add project member", func(doc *model.Document) error {
		if !exists(doc.Projects, projectID) {
			return notFound("project", projectID)
		}
		if !exists(doc.Users, userID) {
			return notFound("user", userID)
		}
		for _, existing := range doc.ProjectMembers {
			if existing.ProjectID == projectID && existing.UserID == userID {
				return fmt.Errorf("member %q of project %q: %w", userID, projectID, ErrDuplicate)
			}
		}
		m = model.ProjectMember{
			ID:        db.newID(),
			ProjectID: projectID,
			UserID:    userID,
			Role:      role,
			CreatedAt: db.now(),
		}
		doc.ProjectMembers = append(doc.ProjectMembers, m)
		return nil
	})
	if err != nil {
		return model.ProjectMember{}, err
	}
	return m, nil
}

// ListProjectMembers returns the project's members, oldest first.
func (db *DB) ListProjectMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	out, err := listWhere(ctx, db, "project members", projectMembers, func(m model.ProjectMember) bool {
		return m.ProjectID == projectID
	})
	oldestFirst(out, func(m model.ProjectMember) time.Time { return m.CreatedAt })
	return out, err
}

// RemoveProjectMember revokes userID's access to the project.
func (db *DB) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	return db.update(ctx, "remove project member", func(doc *model.Document) error {
		var n int
		doc.ProjectMembers, n = model.RemoveIf(doc.ProjectMembers, func(m model.ProjectMember) bool {
			return m.ProjectID == projectID && m.UserID == userID
		})
		if n == 0 {
			return notFound("project member", userID)
		}
		return nil
	})
}

// CreateGuestLink creates a read-only share link for the project that
// expires after ttl.
func (db *DB) CreateGuestLink(ctx context.Context, projectID, createdBy string, ttl time.Duration) (model.ProjectGuestLink, error) {
	if ttl <= 0 {
		return model.ProjectGuestLink{}, invalid("guest link ttl must be positive, got %s", ttl)
	}
	var l model.ProjectGuestLink
	err := db.update(ctx, "create guest link", func(doc *model.Document) error {
		if !exists(doc.Projects, projectID) {
			return notFound("project", projectID)
		}
		now := db.now()
		l = model.ProjectGuestLink{
			ID:        db.newID(),
			ProjectID: projectID,
			Token:     db.newToken(),
			ExpiresAt: now.Add(ttl),
			CreatedBy: createdBy,
			CreatedAt: now,
		}
		doc.ProjectGuestLinks = append(doc.ProjectGuestLinks, l)
		return nil
	})
	if err != nil {
		return model.ProjectGuestLink{}, err
	}
	return l, nil
}

// GetGuestLinkByToken returns the unexpired guest link holding token.
func (db *DB) GetGuestLinkByToken(ctx context.Context, token string) (model.ProjectGuestLink, error) {
	var out model.ProjectGuestLink
	err := db.view(ctx, "get guest link", func(doc *model.Document) error {
		now := db.now()
		for _, l := range doc.ProjectGuestLinks {
			if l.Token == token && l.ExpiresAt.After(now) {
				out = l
				return nil
			}
		}
		return fmt.Errorf("guest link: %w", ErrNotFound)
	})
	return out, err
}

// DeleteGuestLink revokes the guest link with id.
func (db *DB) DeleteGuestLink(ctx context.Context, id string) error {
	return deleteByID(ctx, db, "guest link", projectGuestLinks, id)
}

// CreateTool adds an entry to the shared tool registry.
func (db *DB) CreateTool(ctx context.Context, t model.Tool) (model.Tool, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return model.Tool{}, invalid("tool name is required")
	}
	err := db.update(ctx, "create tool", func(doc *model.Document) error {
		t.ID = db.newID()
		t.CreatedAt = db.now()
		doc.Tools = append(doc.Tools, t)
		return nil
	})
	if err != nil {
		return model.Tool{}, err
	}
	return t, nil
}

// ListTools returns the tool registry sorted by name.
func (db *DB) ListTools(ctx context.Context) ([]model.Tool, error) {
	out, err := listWhere(ctx, db, "tools", tools, func(model.Tool) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}
