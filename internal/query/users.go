package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
)

// NormalizeEmail trims and lower-cases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new user. The email must be unique (case-insensitive);
// an empty role defaults to standard.
func (db *DB) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return model.User{}, invalid("user email is required")
	}
	if u.Role == "" {
		u.Role = model.UserRoleStandard
	}
	if u.Role != model.UserRoleStandard && u.Role != model.UserRoleAdmin {
		return model.User{}, invalid("unknown user role %q", u.Role)
	}

	err := db.update(ctx, "create user", func(doc *model.Document) error {
		for _, existing := range doc.Users {
			if existing.Email == u.Email {
				return fmt.Errorf("user %q: %w", u.Email, ErrDuplicate)
			}
		}
		now := db.now()
		u.ID = db.newID()
		u.CreatedAt, u.UpdatedAt = now, now
		doc.Users = append(doc.Users, u)
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetUserByID returns the user with id.
func (db *DB) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return getByID(ctx, db, "user", users, id)
}

// GetUserByEmail returns the user registered with email (case-insensitive).
func (db *DB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = NormalizeEmail(email)
	var out model.User
	err := db.view(ctx, "get user", func(doc *model.Document) error {
		for _, u := range doc.Users {
			if u.Email == email {
				out = u
				return nil
			}
		}
		return notFound("user", email)
	})
	return out, err
}

// ListUsers returns every user, oldest first.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	out, err := listWhere(ctx, db, "users", users, func(model.User) bool { return true })
	oldestFirst(out, func(u model.User) time.Time { return u.CreatedAt })
	return out, err
}

// UpdateUser applies fn to the user and refreshes updated_at.
// Changing the email to one already in use returns ErrDuplicate.
func (db *DB) UpdateUser(ctx context.Context, id string, fn func(u *model.User)) (model.User, error) {
	return updateByID(ctx, db, "user", users, id, func(doc *model.Document, u *model.User) error {
		fn(u)
		u.Email = NormalizeEmail(u.Email)
		for _, other := range doc.Users {
			if other.ID != id && other.Email == u.Email {
				return fmt.Errorf("user %q: %w", u.Email, ErrDuplicate)
			}
		}
		u.UpdatedAt = db.now()
		return nil
	})
}

// DeleteUser removes the user with their sessions and memberships. Projects
// they own are kept.
func (db *DB) DeleteUser(ctx context.Context, id string) (cascade.Report, error) {
	return cascadeDelete(ctx, db, "user", users, id, cascade.User)
}

