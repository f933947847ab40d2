// Package ihstatus implements the custody state machine for in-house
// shipments of regulated items: received from the distributor, sent out to
// the dealer, and completed.
//
// Status changes go through Tracker.Advance, which checks the preconditions of
// the target state and returns the Transition to audit. Notes live in a
// separate append-only NoteLog; they never change state but can satisfy the
// completion precondition.
package ihstatus
