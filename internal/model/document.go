package model

// Collection names as they appear on disk.
const (
	CollectionUsers                   = "users"
	CollectionSessions                = "sessions"
	CollectionOrganizations           = "organizations"
	CollectionOrganizationMembers     = "organization_members"
	CollectionOrganizationInvitations = "organization_invitations"
	CollectionProjects                = "projects"
	CollectionProjectMembers          = "project_members"
	CollectionProjectGuestLinks       = "project_guest_links"
	CollectionTools                   = "tools"
	CollectionAssets                  = "assets"
	CollectionComponents              = "components"
	CollectionFailureModes            = "failureModes"
	CollectionCauses                  = "causes"
	CollectionEffects                 = "effects"
	CollectionControls                = "controls"
	CollectionActions                 = "actions"
)

// Collections lists every collection in document order.
var Collections = []string{
	CollectionUsers,
	CollectionSessions,
	CollectionOrganizations,
	CollectionOrganizationMembers,
	CollectionOrganizationInvitations,
	CollectionProjects,
	CollectionProjectMembers,
	CollectionProjectGuestLinks,
	CollectionTools,
	CollectionAssets,
	CollectionComponents,
	CollectionFailureModes,
	CollectionCauses,
	CollectionEffects,
	CollectionControls,
	CollectionActions,
}

// Document is the whole persisted dataset.
//
// Slices are never nil after NewDocument or Backfill, so a saved document always
// carries every collection as a JSON array. Top-level entries and record fields
// the model does not declare are kept from decoding and written back on encode.
type Document struct {
	Users                   []User                   `json:"users"`
	Sessions                []Session                `json:"sessions"`
	Organizations           []Organization           `json:"organizations"`
	OrganizationMembers     []OrganizationMember     `json:"organization_members"`
	OrganizationInvitations []OrganizationInvitation `json:"organization_invitations"`
	Projects                []Project                `json:"projects"`
	ProjectMembers          []ProjectMember          `json:"project_members"`
	ProjectGuestLinks       []ProjectGuestLink       `json:"project_guest_links"`
	Tools                   []Tool                   `json:"tools"`
	Assets                  []Asset                  `json:"assets"`
	Components              []Component              `json:"components"`
	FailureModes            []FailureMode            `json:"failureModes"`
	Causes                  []Cause                  `json:"causes"`
	Effects                 []Effect                 `json:"effects"`
	Controls                []Control                `json:"controls"`
	Actions                 []Action                 `json:"actions"`

	extra *extras
}

// NewDocument returns the canonical empty document: every collection present and empty.
func NewDocument() *Document {
	doc := &Document{}
	doc.Backfill()
	return doc
}

// Backfill initializes every absent collection to an empty slice and returns
// the names of the collections it added. Older files written before a
// collection existed load cleanly this way.
func (d *Document) Backfill() []string {
	var added []string
	fill := func(name string, missing bool) {
		if missing {
			added = append(added, name)
		}
	}
	fill(CollectionUsers, backfill(&d.Users))
	fill(CollectionSessions, backfill(&d.Sessions))
	fill(CollectionOrganizations, backfill(&d.Organizations))
	fill(CollectionOrganizationMembers, backfill(&d.OrganizationMembers))
	fill(CollectionOrganizationInvitations, backfill(&d.OrganizationInvitations))
	fill(CollectionProjects, backfill(&d.Projects))
	fill(CollectionProjectMembers, backfill(&d.ProjectMembers))
	fill(CollectionProjectGuestLinks, backfill(&d.ProjectGuestLinks))
	fill(CollectionTools, backfill(&d.Tools))
	fill(CollectionAssets, backfill(&d.Assets))
	fill(CollectionComponents, backfill(&d.Components))
	fill(CollectionFailureModes, backfill(&d.FailureModes))
	fill(CollectionCauses, backfill(&d.Causes))
	fill(CollectionEffects, backfill(&d.Effects))
	fill(CollectionControls, backfill(&d.Controls))
	fill(CollectionActions, backfill(&d.Actions))
	return added
}

// Counts returns the number of records per collection.
func (d *Document) Counts() map[string]int {
	return map[string]int{
		CollectionUsers:                   len(d.Users),
		CollectionSessions:                len(d.Sessions),
		CollectionOrganizations:           len(d.Organizations),
		CollectionOrganizationMembers:     len(d.OrganizationMembers),
		CollectionOrganizationInvitations: len(d.OrganizationInvitations),
		CollectionProjects:                len(d.Projects),
		CollectionProjectMembers:          len(d.ProjectMembers),
		CollectionProjectGuestLinks:       len(d.ProjectGuestLinks),
		CollectionTools:                   len(d.Tools),
		CollectionAssets:                  len(d.Assets),
		CollectionComponents:              len(d.Components),
		CollectionFailureModes:            len(d.FailureModes),
		CollectionCauses:                  len(d.Causes),
		CollectionEffects:                 len(d.Effects),
		CollectionControls:                len(d.Controls),
		CollectionActions:                 len(d.Actions),
	}
}

func backfill[T any](s *[]T) bool {
	if *s != nil {
		return false
	}
	*s = []T{}
	return true
}
