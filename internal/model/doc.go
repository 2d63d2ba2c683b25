// Package model defines the puzzle hunt data model shared by the store,
// the event engine and hunt definitions.
//
// Submissions and visibilities each follow a fixed lifecycle. Submissions move
// from SUBMITTED (optionally through ASSIGNED) to one of the terminal statuses
// CORRECT or INCORRECT. Visibilities move through whatever vocabulary the
// active VisibilityStatusSet declares; the engine only ever consults the set's
// predicates and never hardcodes status names.
//
// Events are immutable value types. Each concrete event reports its Kind so
// that the engine can route it to the handlers registered for that kind.
package model
