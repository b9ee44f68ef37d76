package cascade

import (
	"github.com/roach88/fmea/internal/model"
)

// Orphan is a record whose reference points at a record that does not exist.
type Orphan struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Field      string `json:"field"`
	Ref        string `json:"ref"`
}

// Orphans lists every dangling reference in doc, in collection order.
func Orphans(doc *model.Document) []Orphan {
	users := idsOf(doc.Users)
	orgs := idsOf(doc.Organizations)
	projects := idsOf(doc.Projects)
	assets := idsOf(doc.Assets)
	components := idsOf(doc.Components)
	fms := idsOf(doc.FailureModes)

	out := []Orphan{}
	check := func(collection, id, field, ref string, set model.IDSet) {
		if !set.Has(ref) {
			out = append(out, Orphan{Collection: collection, ID: id, Field: field, Ref: ref})
		}
	}

	for _, s := range doc.Sessions {
		check(model.CollectionSessions, s.ID, "user_id", s.UserID, users)
	}
	for _, m := range doc.OrganizationMembers {
		check(model.CollectionOrganizationMembers, m.ID, "organization_id", m.OrganizationID, orgs)
		check(model.CollectionOrganizationMembers, m.ID, "user_id", m.UserID, users)
	}
	for _, i := range doc.OrganizationInvitations {
		check(model.CollectionOrganizationInvitations, i.ID, "organization_id", i.OrganizationID, orgs)
	}
	for _, p := range doc.Projects {
		// Legacy projects have no organization.
		if p.OrganizationID != "" {
			check(model.CollectionProjects, p.ID, "organization_id", p.OrganizationID, orgs)
		}
		if p.AssetID != "" {
			check(model.CollectionProjects, p.ID, "asset_id", p.AssetID, assets)
		}
	}
	for _, m := range doc.ProjectMembers {
		check(model.CollectionProjectMembers, m.ID, "project_id", m.ProjectID, projects)
		check(model.CollectionProjectMembers, m.ID, "user_id", m.UserID, users)
	}
	for _, l := range doc.ProjectGuestLinks {
		check(model.CollectionProjectGuestLinks, l.ID, "project_id", l.ProjectID, projects)
	}
	for _, c := range doc.Components {
		check(model.CollectionComponents, c.ID, "project_id", c.ProjectID, projects)
	}
	for _, fm := range doc.FailureModes {
		if fm.ComponentID != "" {
			check(model.CollectionFailureModes, fm.ID, "component_id", fm.ComponentID, components)
		} else {
			check(model.CollectionFailureModes, fm.ID, "project_id", fm.ProjectID, projects)
		}
	}
	for _, c := range doc.Causes {
		check(model.CollectionCauses, c.ID, "failure_mode_id", c.FailureModeID, fms)
	}
	for _, e := range doc.Effects {
		check(model.CollectionEffects, e.ID, "failure_mode_id", e.FailureModeID, fms)
	}
	for _, c := range doc.Controls {
		check(model.CollectionControls, c.ID, "failure_mode_id", c.FailureModeID, fms)
	}
	for _, a := range doc.Actions {
		check(model.CollectionActions, a.ID, "failure_mode_id", a.FailureModeID, fms)
	}
	return out
}

// Prune removes orphans, cascading to their dependents, until none are left.
// Projects whose asset is missing are kept: the project itself is intact.
func Prune(doc *model.Document) Report {
	r := Report{}
	for {
		removed := 0
		for _, o := range Orphans(doc) {
			if o.Field == "asset_id" {
				continue
			}
			rr := remove(doc, o.Collection, o.ID)
			removed += rr.Total()
			r.Merge(rr)
		}
		if removed == 0 {
			return r
		}
	}
}

func remove(doc *model.Document, collection, id string) Report {
	switch collection {
	case model.CollectionProjects:
		return Project(doc, id)
	case model.CollectionComponents:
		return Component(doc, id)
	case model.CollectionFailureModes:
		return FailureMode(doc, id)
	}

	r := Report{}
	byID := func(rec model.Record) bool { return rec.RecordID() == id }
	var n int
	switch collection {
	case model.CollectionSessions:
		doc.Sessions, n = model.RemoveIf(doc.Sessions, func(s model.Session) bool { return byID(s) })
	case model.CollectionOrganizationMembers:
		doc.OrganizationMembers, n = model.RemoveIf(doc.OrganizationMembers, func(m model.OrganizationMember) bool { return byID(m) })
	case model.CollectionOrganizationInvitations:
		doc.OrganizationInvitations, n = model.RemoveIf(doc.OrganizationInvitations, func(i model.OrganizationInvitation) bool { return byID(i) })
	case model.CollectionProjectMembers:
		doc.ProjectMembers, n = model.RemoveIf(doc.ProjectMembers, func(m model.ProjectMember) bool { return byID(m) })
	case model.CollectionProjectGuestLinks:
		doc.ProjectGuestLinks, n = model.RemoveIf(doc.ProjectGuestLinks, func(l model.ProjectGuestLink) bool { return byID(l) })
	case model.CollectionCauses:
		doc.Causes, n = model.RemoveIf(doc.Causes, func(c model.Cause) bool { return byID(c) })
	case model.CollectionEffects:
		doc.Effects, n = model.RemoveIf(doc.Effects, func(e model.Effect) bool { return byID(e) })
	case model.CollectionControls:
		doc.Controls, n = model.RemoveIf(doc.Controls, func(c model.Control) bool { return byID(c) })
	case model.CollectionActions:
		doc.Actions, n = model.RemoveIf(doc.Actions, func(a model.Action) bool { return byID(a) })
	}
	r.add(collection, n)
	return r
}

func idsOf[T model.Record](items []T) model.IDSet {
	set := make(model.IDSet, len(items))
	for _, item := range items {
		set.Add(item.RecordID())
	}
	return set
}
