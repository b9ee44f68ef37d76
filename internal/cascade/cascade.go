// Package cascade removes records together with everything that depends on
// them, keeping the document free of orphans.
//
// The functions mutate one in-memory document and never touch storage; callers
// run them inside a single store Update so each cascade is persisted by one
// save. Every level of the containment tree is removed transitively:
//
//	Organization → Project → Component → FailureMode → Cause, Effect, Control, Action
package cascade

import (
	"sort"

	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/obs"
)

// Report counts removed records per collection. Collections with nothing
// removed are absent.
type Report map[string]int

func (r Report) add(collection string, n int) {
	if n > 0 {
		r[collection] += n
	}
}

// Merge adds other's counts to r.
func (r Report) Merge(other Report) {
	for name, n := range other {
		r.add(name, n)
	}
}

// Total returns the number of records removed.
func (r Report) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Collections returns the affected collection names, sorted.
func (r Report) Collections() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Observe adds the report to obs.CascadeDeleted. Call it after the document
// has been saved.
func (r Report) Observe() {
	for name, n := range r {
		obs.CascadeDeleted.WithLabelValues(name).Add(float64(n))
	}
}

// FailureMode removes the failure mode and its causes, effects, controls and actions.
func FailureMode(doc *model.Document, id string) Report {
	ids := model.IDSet{}
	ids.Add(id)
	return failureModes(doc, ids)
}

// Component removes the component, its failure modes, and their children.
func Component(doc *model.Document, id string) Report {
	fmIDs := model.IDSet{}
	for _, fm := range doc.FailureModes {
		if fm.ComponentID == id {
			fmIDs.Add(fm.ID)
		}
	}

	r := failureModes(doc, fmIDs)
	var n int
	doc.Components, n = model.RemoveIf(doc.Components, func(c model.Component) bool { return c.ID == id })
	r.add(model.CollectionComponents, n)
	return r
}

// Project removes the project with its failure modes (direct or through a
// component), their children, its components, its asset, its members and its
// guest links.
func Project(doc *model.Document, id string) Report {
	p, found := model.FindByID(doc.Projects, id)

	fmIDs := model.ProjectFailureModeIDs(doc, id)
	componentIDs := model.ProjectComponentIDs(doc, id)

	r := failureModes(doc, fmIDs)

	var n int
	doc.Components, n = model.RemoveIf(doc.Components, func(c model.Component) bool { return componentIDs.Has(c.ID) })
	r.add(model.CollectionComponents, n)

	if found && p.AssetID != "" {
		doc.Assets, n = model.RemoveIf(doc.Assets, func(a model.Asset) bool { return a.ID == p.AssetID })
		r.add(model.CollectionAssets, n)
	}

	doc.ProjectMembers, n = model.RemoveIf(doc.ProjectMembers, func(m model.ProjectMember) bool { return m.ProjectID == id })
	r.add(model.CollectionProjectMembers, n)
	doc.ProjectGuestLinks, n = model.RemoveIf(doc.ProjectGuestLinks, func(l model.ProjectGuestLink) bool { return l.ProjectID == id })
	r.add(model.CollectionProjectGuestLinks, n)

	doc.Projects, n = model.RemoveIf(doc.Projects, func(p model.Project) bool { return p.ID == id })
	r.add(model.CollectionProjects, n)
	return r
}

// Organization removes every project of the organization (with their full
// cascades), its members, its invitations and the organization itself.
func Organization(doc *model.Document, id string) Report {
	r := Report{}

	var projectIDs []string
	for _, p := range doc.Projects {
		if p.OrganizationID == id {
			projectIDs = append(projectIDs, p.ID)
		}
	}
	for _, pid := range projectIDs {
		r.Merge(Project(doc, pid))
	}

	var n int
	doc.OrganizationMembers, n = model.RemoveIf(doc.OrganizationMembers, func(m model.OrganizationMember) bool { return m.OrganizationID == id })
	r.add(model.CollectionOrganizationMembers, n)
	doc.OrganizationInvitations, n = model.RemoveIf(doc.OrganizationInvitations, func(i model.OrganizationInvitation) bool { return i.OrganizationID == id })
	r.add(model.CollectionOrganizationInvitations, n)
	doc.Organizations, n = model.RemoveIf(doc.Organizations, func(o model.Organization) bool { return o.ID == id })
	r.add(model.CollectionOrganizations, n)
	return r
}

// User removes the user's sessions, organization memberships and project
// memberships, then the user. Projects the user owns are kept.
func User(doc *model.Document, id string) Report {
	r := Report{}
	var n int
	doc.Sessions, n = model.RemoveIf(doc.Sessions, func(s model.Session) bool { return s.UserID == id })
	r.add(model.CollectionSessions, n)
	doc.OrganizationMembers, n = model.RemoveIf(doc.OrganizationMembers, func(m model.OrganizationMember) bool { return m.UserID == id })
	r.add(model.CollectionOrganizationMembers, n)
	doc.ProjectMembers, n = model.RemoveIf(doc.ProjectMembers, func(m model.ProjectMember) bool { return m.UserID == id })
	r.add(model.CollectionProjectMembers, n)
	doc.Users, n = model.RemoveIf(doc.Users, func(u model.User) bool { return u.ID == id })
	r.add(model.CollectionUsers, n)
	return r
}

func failureModes(doc *model.Document, ids model.IDSet) Report {
	r := Report{}
	if len(ids) == 0 {
		return r
	}
	var n int
	doc.Causes, n = model.RemoveIf(doc.Causes, func(c model.Cause) bool { return ids.Has(c.FailureModeID) })
	r.add(model.CollectionCauses, n)
	doc.Effects, n = model.RemoveIf(doc.Effects, func(e model.Effect) bool { return ids.Has(e.FailureModeID) })
	r.add(model.CollectionEffects, n)
	doc.Controls, n = model.RemoveIf(doc.Controls, func(c model.Control) bool { return ids.Has(c.FailureModeID) })
	r.add(model.CollectionControls, n)
	doc.Actions, n = model.RemoveIf(doc.Actions, func(a model.Action) bool { return ids.Has(a.FailureModeID) })
	r.add(model.CollectionActions, n)
	doc.FailureModes, n = model.RemoveIf(doc.FailureModes, func(fm model.FailureMode) bool { return ids.Has(fm.ID) })
	r.add(model.CollectionFailureModes, n)
	return r
}
