package query

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/fmea/internal/model"
)

// CreateInvitation invites email to join the organization with role. The
// invitation expires after ttl. A second pending invitation for the same
// email is ErrDuplicate.
func (db *DB) CreateInvitation(ctx context.Context, orgID, email, role, invitedBy string, ttl time.Duration) (model.OrganizationInvitation, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return model.OrganizationInvitation{}, invalid("invitation email is required")
	}
	if !model.ValidOrgRoles[role] {
		return model.OrganizationInvitation{}, invalid("unknown organization role %q", role)
	}
	if ttl <= 0 {
		return model.OrganizationInvitation{}, invalid("invitation ttl must be positive, got %s", ttl)
	}

	var inv model.OrganizationInvitation
	err := db.update(ctx, "create invitation", func(doc *model.Document) error {
		if !exists(doc.Organizations, orgID) {
			return notFound("organization", orgID)
		}
		now := db.now()
		for _, existing := range doc.OrganizationInvitations {
			if existing.OrganizationID == orgID && existing.Email == email && livePending(existing, now) {
				return fmt.Errorf("invitation for %q: %w", email, ErrDuplicate)
			}
		}
		inv = model.OrganizationInvitation{
			ID:             db.newID(),
			OrganizationID: orgID,
			Email:          email,
			Role:           role,
			Status:         model.InvitationPending,
			Token:          db.newToken(),
			ExpiresAt:      now.Add(ttl),
			InvitedBy:      invitedBy,
			CreatedAt:      now,
		}
		doc.OrganizationInvitations = append(doc.OrganizationInvitations, inv)
		return nil
	})
	if err != nil {
		return model.OrganizationInvitation{}, err
	}
	return inv, nil
}

// GetInvitationByToken returns the pending invitation holding token.
// Accepted, revoked and expired invitations are ErrNotFound.
func (db *DB) GetInvitationByToken(ctx context.Context, token string) (model.OrganizationInvitation, error) {
	var out model.OrganizationInvitation
	err := db.view(ctx, "get invitation", func(doc *model.Document) error {
		i, ok := findLiveInvitation(doc, token, db.now())
		if !ok {
			return fmt.Errorf("invitation: %w", ErrNotFound)
		}
		out = doc.OrganizationInvitations[i]
		return nil
	})
	return out, err
}

// ListPendingInvitations returns the organization's unexpired pending
// invitations, oldest first.
func (db *DB) ListPendingInvitations(ctx context.Context, orgID string) ([]model.OrganizationInvitation, error) {
	now := db.now()
	out, err := listWhere(ctx, db, "invitations", organizationInvitations, func(inv model.OrganizationInvitation) bool {
		return inv.OrganizationID == orgID && livePending(inv, now)
	})
	oldestFirst(out, func(inv model.OrganizationInvitation) time.Time { return inv.CreatedAt })
	return out, err
}

// UpdateInvitationStatus sets the status of the invitation with id.
func (db *DB) UpdateInvitationStatus(ctx context.Context, id, status string) (model.OrganizationInvitation, error) {
	if !model.ValidInvitationStatuses[status] {
		return model.OrganizationInvitation{}, invalid("unknown invitation status %q", status)
	}
	return updateByID(ctx, db, "invitation", organizationInvitations, id, func(_ *model.Document, inv *model.OrganizationInvitation) error {
		inv.Status = status
		return nil
	})
}

// RevokeInvitation marks a pending invitation revoked.
func (db *DB) RevokeInvitation(ctx context.Context, id string) (model.OrganizationInvitation, error) {
	return updateByID(ctx, db, "invitation", organizationInvitations, id, func(_ *model.Document, inv *model.OrganizationInvitation) error {
		if inv.Status != model.InvitationPending {
			return invalid("invitation is %s, not pending", inv.Status)
		}
		inv.Status = model.InvitationRevoked
		return nil
	})
}

// AcceptInvitation adds userID to the inviting organization with the invited
// role and marks the invitation accepted, in one write. If the user is
// already a member their existing membership is returned unchanged.
func (db *DB) AcceptInvitation(ctx context.Context, token, userID string) (model.OrganizationMember, error) {
	var m model.OrganizationMember
	err := db.update(ctx, "accept invitation", func(doc *model.Document) error {
		now := db.now()
		i, ok := findLiveInvitation(doc, token, now)
		if !ok {
			return fmt.Errorf("invitation: %w", ErrNotFound)
		}
		if !exists(doc.Users, userID) {
			return notFound("user", userID)
		}
		inv := &doc.OrganizationInvitations[i]
		inv.Status = model.InvitationAccepted

		if j, ok := findMember(doc, inv.OrganizationID, userID); ok {
			m = doc.OrganizationMembers[j]
			return nil
		}
		m = model.OrganizationMember{
			ID:             db.newID(),
			OrganizationID: inv.OrganizationID,
			UserID:         userID,
			Role:           inv.Role,
			JoinedAt:       now,
		}
		doc.OrganizationMembers = append(doc.OrganizationMembers, m)
		return nil
	})
	if err != nil {
		return model.OrganizationMember{}, err
	}
	return m, nil
}

func livePending(inv model.OrganizationInvitation, now time.Time) bool {
	return inv.Status == model.InvitationPending && inv.ExpiresAt.After(now)
}

func findLiveInvitation(doc *model.Document, token string, now time.Time) (int, bool) {
	for i, inv := range doc.OrganizationInvitations {
		if inv.Token == token && livePending(inv, now) {
			return i, true
		}
	}
	return -1, false
}
