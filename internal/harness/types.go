package harness

// StepTrace records what one scenario step did.
type StepTrace struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	Ref   string `json:"ref,omitempty"`

	// ID is the id of the record the step created, if any.
	ID string `json:"id,omitempty"`

	// Removed is the number of records a delete or prune step removed.
	Removed int `json:"removed,omitempty"`

	// Error is the step's error message when the scenario expected one.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expected error matched and every assertion held.
	Pass bool `json:"pass"`

	// Trace lists the executed steps in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Refs maps scenario ref names to the ids they were assigned.
	Refs map[string]string `json:"refs"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
		Refs:   make(map[string]string),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(step StepTrace) {
	step.Index = len(r.Trace)
	r.Trace = append(r.Trace, step)
}

// refFor returns the scenario ref assigned to id, or id itself.
func (r *Result) refFor(id string) string {
	for name, v := range r.Refs {
		if v == id {
			return name
		}
	}
	return id
}
