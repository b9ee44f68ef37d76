// Package model defines the typed records persisted by the FMEA document store.
//
// The on-disk document is a single JSON object whose top-level fields are named
// collections. Document models it as a struct of slices so that every collection
// has an explicit record type:
//
//	users, sessions, organizations, organization_members, organization_invitations,
//	projects, project_members, project_guest_links, tools, assets, components,
//	failureModes, causes, effects, controls, actions
//
// Records form a containment tree:
//
//	Organization → Project → Component → FailureMode → {Cause, Effect, Control, Action}
//
// A FailureMode may also point straight at a Project (legacy records that predate
// components). Foreign keys are plain string ids; the cascade package keeps the
// tree free of orphans on delete.
//
// # Identity
//
// Record ids are ULIDs (millisecond timestamp + random suffix), so ids sort in
// creation order. Bearer credentials (session, invitation and guest-link tokens)
// are random UUIDs and never double as record ids.
package model
