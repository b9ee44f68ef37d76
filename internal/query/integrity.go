package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
)

// ValidateReferences lists every record pointing at a missing parent.
func (db *DB) ValidateReferences(ctx context.Context) ([]cascade.Orphan, error) {
	out := []cascade.Orphan{}
	err := db.view(ctx, "validate references", func(doc *model.Document) error {
		out = cascade.Orphans(doc)
		return nil
	})
	return out, err
}

// PruneOrphans removes records whose parent is missing, cascading to their
// own dependents. Nothing is written when the document is clean.
func (db *DB) PruneOrphans(ctx context.Context) (cascade.Report, error) {
	var report cascade.Report
	err := db.update(ctx, "prune orphans", func(doc *model.Document) error {
		report = cascade.Prune(doc)
		if report.Total() == 0 {
			return errNoChanges
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChanges) {
		return nil, err
	}
	if report.Total() > 0 {
		slog.Info("pruned orphaned records", "total", report.Total(), "collections", report.Collections())
		report.Observe()
	}
	return report, nil
}

// errNoChanges aborts an Update without writing.
var errNoChanges = errors.New("no changes")
