package model

// FailureModeGraph is a failure mode with every record attached to it.
// It is the input of the RPN engine.
type FailureModeGraph struct {
	FailureMode FailureMode `json:"failure_mode"`
	Causes      []Cause     `json:"causes"`
	Effects     []Effect    `json:"effects"`
	Controls    []Control   `json:"controls"`
	Actions     []Action    `json:"actions"`
}

// GraphOf collects the causes, effects, controls and actions of fm from doc.
func GraphOf(doc *Document, fm FailureMode) FailureModeGraph {
	return FailureModeGraph{
		FailureMode: fm,
		Causes:      Filter(doc.Causes, func(c Cause) bool { return c.FailureModeID == fm.ID }),
		Effects:     Filter(doc.Effects, func(e Effect) bool { return e.FailureModeID == fm.ID }),
		Controls:    Filter(doc.Controls, func(c Control) bool { return c.FailureModeID == fm.ID }),
		Actions:     Filter(doc.Actions, func(a Action) bool { return a.FailureModeID == fm.ID }),
	}
}

// ProjectFailureModeIDs returns the ids of every failure mode belonging to the
// project, either directly through project_id or through one of its components.
func ProjectFailureModeIDs(doc *Document, projectID string) IDSet {
	components := ProjectComponentIDs(doc, projectID)
	ids := IDSet{}
	for _, fm := range doc.FailureModes {
		if fm.ProjectID == projectID || (fm.ComponentID != "" && components.Has(fm.ComponentID)) {
			ids.Add(fm.ID)
		}
	}
	return ids
}

// ProjectComponentIDs returns the ids of the project's components.
func ProjectComponentIDs(doc *Document, projectID string) IDSet {
	ids := IDSet{}
	for _, c := range doc.Components {
		if c.ProjectID == projectID {
			ids.Add(c.ID)
		}
	}
	return ids
}
