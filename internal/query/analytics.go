package query

import (
	"context"

	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/rpn"
)

// RiskReport is the RPN picture of one project.
type RiskReport struct {
	Project     ProjectDetail    `json:"project"`
	Thresholds  rpn.Thresholds   `json:"thresholds"`
	Assessments []rpn.Assessment `json:"assessments"`
	Summary     rpn.Summary      `json:"summary"`
}

// thresholdsFor returns the organization's thresholds, falling back to the
// DB defaults for legacy projects and unset bounds.
func (db *DB) thresholdsFor(doc *model.Document, p model.Project) rpn.Thresholds {
	if p.OrganizationID == "" {
		return db.thresholds
	}
	org, ok := model.FindByID(doc.Organizations, p.OrganizationID)
	if !ok {
		return db.thresholds
	}
	return rpn.ThresholdsFrom(org.Settings.RPNThresholds, db.thresholds)
}

// ThresholdsForProject returns the RPN thresholds that apply to the project.
func (db *DB) ThresholdsForProject(ctx context.Context, projectID string) (rpn.Thresholds, error) {
	var out rpn.Thresholds
	err := db.view(ctx, "project thresholds", func(doc *model.Document) error {
		p, ok := model.FindByID(doc.Projects, projectID)
		if !ok {
			return notFound("project", projectID)
		}
		out = db.thresholdsFor(doc, p)
		return nil
	})
	return out, err
}

// ProjectRiskReport scores every failure mode of the project against the
// project's thresholds, from one consistent snapshot.
func (db *DB) ProjectRiskReport(ctx context.Context, projectID string) (RiskReport, error) {
	var out RiskReport
	err := db.view(ctx, "project risk report", func(doc *model.Document) error {
		p, ok := model.FindByID(doc.Projects, projectID)
		if !ok {
			return notFound("project", projectID)
		}
		t := db.thresholdsFor(doc, p)
		assessments := rpn.AnalyzeAll(projectGraphs(doc, projectID), t)
		out = RiskReport{
			Project:     detailOf(doc, p),
			Thresholds:  t,
			Assessments: assessments,
			Summary:     rpn.Summarize(assessments),
		}
		return nil
	})
	return out, err
}

// FailureModeRisk scores one failure mode against its project's thresholds.
func (db *DB) FailureModeRisk(ctx context.Context, id string) (rpn.Assessment, error) {
	var out rpn.Assessment
	err := db.view(ctx, "failure mode risk", func(doc *model.Document) error {
		fm, ok := model.FindByID(doc.FailureModes, id)
		if !ok {
			return notFound("failure mode", id)
		}
		t := db.thresholds
		if p, ok := model.FindByID(doc.Projects, fm.ProjectID); ok {
			t = db.thresholdsFor(doc, p)
		}
		out = rpn.Analyze(model.GraphOf(doc, fm), t)
		return nil
	})
	return out, err
}
