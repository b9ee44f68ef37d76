package query

import (
	"context"
	"sort"
	"time"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
)

// collection selects one slice of the document.
type collection[T model.Record] func(doc *model.Document) *[]T

var (
	users                   collection[model.User]                   = func(d *model.Document) *[]model.User { return &d.Users }
	sessions                collection[model.Session]                = func(d *model.Document) *[]model.Session { return &d.Sessions }
	organizations           collection[model.Organization]           = func(d *model.Document) *[]model.Organization { return &d.Organizations }
	organizationMembers     collection[model.OrganizationMember]     = func(d *model.Document) *[]model.OrganizationMember { return &d.OrganizationMembers }
	organizationInvitations collection[model.OrganizationInvitation] = func(d *model.Document) *[]model.OrganizationInvitation { return &d.OrganizationInvitations }
	projects                collection[model.Project]                = func(d *model.Document) *[]model.Project { return &d.Projects }
	projectMembers          collection[model.ProjectMember]          = func(d *model.Document) *[]model.ProjectMember { return &d.ProjectMembers }
	projectGuestLinks       collection[model.ProjectGuestLink]       = func(d *model.Document) *[]model.ProjectGuestLink { return &d.ProjectGuestLinks }
	tools                   collection[model.Tool]                   = func(d *model.Document) *[]model.Tool { return &d.Tools }
	assets                  collection[model.Asset]                  = func(d *model.Document) *[]model.Asset { return &d.Assets }
	components              collection[model.Component]              = func(d *model.Document) *[]model.Component { return &d.Components }
	failureModes            collection[model.FailureMode]            = func(d *model.Document) *[]model.FailureMode { return &d.FailureModes }
	causes                  collection[model.Cause]                  = func(d *model.Document) *[]model.Cause { return &d.Causes }
	effects                 collection[model.Effect]                 = func(d *model.Document) *[]model.Effect { return &d.Effects }
	controls                collection[model.Control]                = func(d *model.Document) *[]model.Control { return &d.Controls }
	actions                 collection[model.Action]                 = func(d *model.Document) *[]model.Action { return &d.Actions }
)

// getByID returns the first record with id.
func getByID[T model.Record](ctx context.Context, db *DB, kind string, col collection[T], id string) (T, error) {
	var out T
	err := db.view(ctx, "get "+kind, func(doc *model.Document) error {
		rec, ok := model.FindByID(*col(doc), id)
		if !ok {
			return notFound(kind, id)
		}
		out = rec
		return nil
	})
	return out, err
}

// updateByID applies mutate to the first record with id. The id cannot be
// changed by mutate. A mutate error aborts the write.
func updateByID[T model.Record](ctx context.Context, db *DB, kind string, col collection[T], id string, mutate func(doc *model.Document, rec *T) error) (T, error) {
	var out T
	err := db.update(ctx, "update "+kind, func(doc *model.Document) error {
		items := *col(doc)
		i := model.IndexByID(items, id)
		if i < 0 {
			return notFound(kind, id)
		}
		rec := items[i]
		if err := mutate(doc, &rec); err != nil {
			return err
		}
		if rec.RecordID() != id {
			return invalid("%s id cannot change", kind)
		}
		items[i] = rec
		out = rec
		return nil
	})
	return out, err
}

// deleteByID removes every record with id from a leaf collection.
func deleteByID[T model.Record](ctx context.Context, db *DB, kind string, col collection[T], id string) error {
	return db.update(ctx, "delete "+kind, func(doc *model.Document) error {
		var n int
		*col(doc), n = model.RemoveIf(*col(doc), func(rec T) bool { return rec.RecordID() == id })
		if n == 0 {
			return notFound(kind, id)
		}
		return nil
	})
}

// listWhere returns the records matching keep, in document order.
func listWhere[T model.Record](ctx context.Context, db *DB, kind string, col collection[T], keep func(T) bool) ([]T, error) {
	out := []T{}
	err := db.view(ctx, "list "+kind, func(doc *model.Document) error {
		out = model.Filter(*col(doc), keep)
		return nil
	})
	return out, err
}

func exists[T model.Record](items []T, id string) bool {
	return model.IndexByID(items, id) >= 0
}

// newestFirst sorts by created time descending, keeping document order for ties.
func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}

// oldestFirst sorts by created time ascending, keeping document order for ties.
func oldestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).Before(created(items[j]))
	})
}

// cascadeDelete runs del inside one Update after checking that id exists, and
// records the removed counts once the document is saved.
func cascadeDelete[T model.Record](ctx context.Context, db *DB, kind string, col collection[T], id string, del func(*model.Document, string) cascade.Report) (cascade.Report, error) {
	var report cascade.Report
	err := db.update(ctx, "delete "+kind, func(doc *model.Document) error {
		if !exists(*col(doc), id) {
			return notFound(kind, id)
		}
		report = del(doc, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Observe()
	return report, nil
}
