// Package harness runs scripted FMEA scenarios against the query layer.
//
// A scenario is a YAML file listing operations to perform on a fresh store and
// assertions on the resulting risk picture. The harness is used by tests to
// pin down end-to-end behavior: cascade deletes, threshold resolution and RPN
// derivation across both storage backends.
//
// # Scenario Format
//
//	name: pump_seal_risk
//	description: "What this scenario validates"
//	backend: json            # or sqlite
//	steps:
//	  - op: create_project
//	    ref: pump
//	    args: { name: Cooling Pump, asset: P-101, criticality: high }
//	  - op: create_cause
//	    args: { failure_mode: leak, occurrence: 11 }
//	    expect_error: invalid_rating
//	assertions:
//	  - type: rpn
//	    failure_mode: leak
//	    rpn: 126
//	    level: high
//
// Arguments that name another record (project, component, failure_mode,
// organization, owner, user, target) hold the ref of an earlier step.
//
// # Assertion Types
//
//   - rpn: a failure mode's rpn, level, post_rpn and post_level
//   - summary: a project's highest_rpn, failure_modes and open_actions
//   - count: the number of records in a collection
//   - missing: a ref'd record is gone from a collection
//   - orphans: the number of dangling references
//
// # Deterministic Testing
//
// Every run uses a fresh temporary data directory, a testutil.DeterministicClock
// and testutil.Sequence ids, so a scenario always produces the same document
// and its report snapshot can be compared against a golden file.
package harness
