package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/fmea/internal/model"
)

// createTestStore opens a store on a fresh temp database.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDocument returns a small document with one record in several
// collections.
func createTestDocument() *model.Document {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	sev := 4
	doc := model.NewDocument()
	doc.Users = append(doc.Users, model.User{ID: "u1", Email: "ada@example.com", Name: "Ada", Role: model.UserRoleAdmin, CreatedAt: ts, UpdatedAt: ts})
	doc.Assets = append(doc.Assets, model.Asset{ID: "a1", Name: "Pump <P-101>", Standards: model.Standards{"ISO 14224"}, CreatedAt: ts, UpdatedAt: ts})
	doc.Projects = append(doc.Projects, model.Project{ID: "p1", Name: "Pump", AssetID: "a1", UserID: "u1", Status: model.ProjectStatusActive, CreatedAt: ts, UpdatedAt: ts})
	doc.Components = append(doc.Components,
		model.Component{ID: "c2", ProjectID: "p1", Name: "Seal", Order: 1, CreatedAt: ts, UpdatedAt: ts},
		model.Component{ID: "c1", ProjectID: "p1", Name: "Impeller", Order: 0, CreatedAt: ts, UpdatedAt: ts},
	)
	doc.FailureModes = append(doc.FailureModes, model.FailureMode{ID: "fm1", ProjectID: "p1", ComponentID: "c1", FailureMode: "Cavitation", Status: model.FailureModeStatusOpen, CreatedAt: ts, UpdatedAt: ts})
	doc.Actions = append(doc.Actions, model.Action{ID: "ac1", FailureModeID: "fm1", Status: model.ActionOpen, PostActionSeverity: &sev, CreatedAt: ts, UpdatedAt: ts})
	return doc
}
