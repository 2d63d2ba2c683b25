// Package store provides SQLite-backed persistence for a puzzle hunt.
//
// The store owns three kinds of state:
//   - Submissions: answer attempts and their lifecycle status
//   - Visibilities: the current status of every written (team, puzzle) pair,
//     plus an append-only visibility_history audit log
//   - Hunt records: teams, team properties, puzzles, users and run start times
//
// # Mutations
//
// Every mutating operation runs in a single transaction (row write, history
// append and the decision to emit an event succeed or fail together) and
// returns a Mutation describing whether anything changed and which events
// the change produced. The store never dispatches those events itself; the
// engine drains them. This keeps the store free of any dependency on the
// dispatcher.
//
// Validation rejections (unknown status, terminal submission, no-op change)
// are reported as Mutation{Changed: false}, never as errors. Unknown ids are
// reported as ErrNotFound. Anything else is a persistence fault.
//
// # Ordering
//
// visibility_history.seq is an AUTOINCREMENT column, so sequence numbers are
// strictly increasing across all pairs. Queries that return history or
// submissions always ORDER BY that column.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
