package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/rpn"
)

// CreateOrganization stores a new organization and, when ownerID is set,
// makes that user its org_admin.
//
// An empty slug is derived from the name. A derived slug that is taken gets a
// numeric suffix ("acme-2"); an explicit slug that is taken is ErrDuplicate.
func (db *DB) CreateOrganization(ctx context.Context, org model.Organization, ownerID string) (model.Organization, error) {
	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" {
		return model.Organization{}, invalid("organization name is required")
	}
	if org.Plan == "" {
		org.Plan = model.OrganizationPlanFree
	}
	if err := validateSettings(org.Settings); err != nil {
		return model.Organization{}, err
	}

	err := db.update(ctx, "create organization", func(doc *model.Document) error {
		if ownerID != "" && !exists(doc.Users, ownerID) {
			return notFound("user", ownerID)
		}
		if org.Slug == "" {
			org.Slug = uniqueSlug(doc, model.Slugify(org.Name))
		} else if slugTaken(doc, org.Slug, "") {
			return fmt.Errorf("organization slug %q: %w", org.Slug, ErrDuplicate)
		}

		now := db.now()
		org.ID = db.newID()
		org.CreatedAt, org.UpdatedAt = now, now
		doc.Organizations = append(doc.Organizations, org)

		if ownerID != "" {
			doc.OrganizationMembers = append(doc.OrganizationMembers, model.OrganizationMember{
				ID:             db.newID(),
				OrganizationID: org.ID,
				UserID:         ownerID,
				Role:           model.OrgRoleAdmin,
				JoinedAt:       now,
			})
		}
		return nil
	})
	if err != nil {
		return model.Organization{}, err
	}
	return org, nil
}

// GetOrganizationByID returns the organization with id.
func (db *DB) GetOrganizationByID(ctx context.Context, id string) (model.Organization, error) {
	return getByID(ctx, db, "organization", organizations, id)
}

// GetOrganizationBySlug returns the organization with slug.
func (db *DB) GetOrganizationBySlug(ctx context.Context, slug string) (model.Organization, error) {
	var out model.Organization
	err := db.view(ctx, "get organization", func(doc *model.Document) error {
		for _, o := range doc.Organizations {
			if o.Slug == slug {
				out = o
				return nil
			}
		}
		return notFound("organization", slug)
	})
	return out, err
}

// ListOrganizationsByUserID returns the organizations the user is a member of,
// sorted by name.
func (db *DB) ListOrganizationsByUserID(ctx context.Context, userID string) ([]model.Organization, error) {
	out := []model.Organization{}
	err := db.view(ctx, "list organizations", func(doc *model.Document) error {
		orgIDs := model.IDSet{}
		for _, m := range doc.OrganizationMembers {
			if m.UserID == userID {
				orgIDs.Add(m.OrganizationID)
			}
		}
		out = model.Filter(doc.Organizations, func(o model.Organization) bool { return orgIDs.Has(o.ID) })
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// UpdateOrganization applies fn and refreshes updated_at. A slug change to a
// slug already in use returns ErrDuplicate.
func (db *DB) UpdateOrganization(ctx context.Context, id string, fn func(o *model.Organization)) (model.Organization, error) {
	return updateByID(ctx, db, "organization", organizations, id, func(doc *model.Document, o *model.Organization) error {
		fn(o)
		if o.Slug == "" {
			o.Slug = uniqueSlug(doc, model.Slugify(o.Name))
		}
		if slugTaken(doc, o.Slug, id) {
			return fmt.Errorf("organization slug %q: %w", o.Slug, ErrDuplicate)
		}
		if err := validateSettings(o.Settings); err != nil {
			return err
		}
		o.UpdatedAt = db.now()
		return nil
	})
}

// DeleteOrganization removes the organization, its members, its invitations
// and every one of its projects with their full cascade.
func (db *DB) DeleteOrganization(ctx context.Context, id string) (cascade.Report, error) {
	return cascadeDelete(ctx, db, "organization", organizations, id, cascade.Organization)
}

func validateSettings(s model.OrganizationSettings) error {
	if s.RPNThresholds == nil {
		return nil
	}
	t := rpn.ThresholdsFrom(s.RPNThresholds, rpn.DefaultThresholds())
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func slugTaken(doc *model.Document, slug, exceptID string) bool {
	for _, o := range doc.Organizations {
		if o.Slug == slug && o.ID != exceptID {
			return true
		}
	}
	return false
}

func uniqueSlug(doc *model.Document, base string) string {
	slug := base
	for n := 2; slugTaken(doc, slug, ""); n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug
}

// AddOrganizationMember adds userID to the organization with role.
// A user can hold one membership per organization.
func (db *DB) AddOrganizationMember(ctx context.Context, orgID, userID, role string) (model.OrganizationMember, error) {
	if !model.ValidOrgRoles[role] {
		return model.OrganizationMember{}, invalid("unknown organization role %q", role)
	}
	var m model.OrganizationMember
	err := db.update(ctx, "add organization member", func(doc *model.Document) error {
		if !exists(doc.Organizations, orgID) {
			return notFound("organization", orgID)
		}
		if !exists(doc.Users, userID) {
			return notFound("user", userID)
		}
		if _, ok := findMember(doc, orgID, userID); ok {
			return fmt.Errorf("member %q of %q: %w", userID, orgID, ErrDuplicate)
		}
		m = model.OrganizationMember{
			ID:             db.newID(),
			OrganizationID: orgID,
			UserID:         userID,
			Role:           role,
			JoinedAt:       db.now(),
		}
		doc.OrganizationMembers = append(doc.OrganizationMembers, m)
		return nil
	})
	if err != nil {
		return model.OrganizationMember{}, err
	}
	return m, nil
}

// GetOrganizationMember returns userID's membership of the organization.
func (db *DB) GetOrganizationMember(ctx context.Context, orgID, userID string) (model.OrganizationMember, error) {
	var out model.OrganizationMember
	err := db.view(ctx, "get organization member", func(doc *model.Document) error {
		i, ok := findMember(doc, orgID, userID)
		if !ok {
			return notFound("organization member", userID)
		}
		out = doc.OrganizationMembers[i]
		return nil
	})
	return out, err
}

// ListOrganizationMembers returns the organization's members in join order.
func (db *DB) ListOrganizationMembers(ctx context.Context, orgID string) ([]model.OrganizationMember, error) {
	out, err := listWhere(ctx, db, "organization members", organizationMembers, func(m model.OrganizationMember) bool {
		return m.OrganizationID == orgID
	})
	oldestFirst(out, func(m model.OrganizationMember) time.Time { return m.JoinedAt })
	return out, err
}

// UpdateOrganizationMemberRole changes a member's role. The last org_admin
// cannot be demoted.
func (db *DB) UpdateOrganizationMemberRole(ctx context.Context, orgID, userID, role string) (model.OrganizationMember, error) {
	if !model.ValidOrgRoles[role] {
		return model.OrganizationMember{}, invalid("unknown organization role %q", role)
	}
	var out model.OrganizationMember
	err := db.update(ctx, "update organization member", func(doc *model.Document) error {
		i, ok := findMember(doc, orgID, userID)
		if !ok {
			return notFound("organization member", userID)
		}
		m := &doc.OrganizationMembers[i]
		if m.Role == model.OrgRoleAdmin && role != model.OrgRoleAdmin && adminCount(doc, orgID) == 1 {
			return errLastAdmin
		}
		m.Role = role
		out = *m
		return nil
	})
	return out, err
}

// RemoveOrganizationMember removes userID from the organization. The last
// org_admin cannot be removed.
func (db *DB) RemoveOrganizationMember(ctx context.Context, orgID, userID string) error {
	return db.update(ctx, "remove organization member", func(doc *model.Document) error {
		i, ok := findMember(doc, orgID, userID)
		if !ok {
			return notFound("organization member", userID)
		}
		if doc.OrganizationMembers[i].Role == model.OrgRoleAdmin && adminCount(doc, orgID) == 1 {
			return errLastAdmin
		}
		doc.OrganizationMembers, _ = model.RemoveIf(doc.OrganizationMembers, func(m model.OrganizationMember) bool {
			return m.OrganizationID == orgID && m.UserID == userID
		})
		return nil
	})
}

var errLastAdmin = fmt.Errorf("%w: organization must keep at least one org_admin", ErrInvalidInput)

// IsLastAdminError reports whether err was caused by removing or demoting the
// only org_admin of an organization.
func IsLastAdminError(err error) bool {
	return errors.Is(err, errLastAdmin)
}

func findMember(doc *model.Document, orgID, userID string) (int, bool) {
	for i, m := range doc.OrganizationMembers {
		if m.OrganizationID == orgID && m.UserID == userID {
			return i, true
		}
	}
	return -1, false
}

func adminCount(doc *model.Document, orgID string) int {
	n := 0
	for _, m := range doc.OrganizationMembers {
		if m.OrganizationID == orgID && m.Role == model.OrgRoleAdmin {
			n++
		}
	}
	return n
}
