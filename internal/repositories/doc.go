// Package repositories implements SQLite persistence for the client's local records.
//
// Key Implementations:
//   - [ArtifactRepository] : history of generated outputs with soft deletes
//   - [VideoSessionRepository] : server-side upload sessions and their cleanup status
//   - [AuthSessionRepository] : signed-in sessions and pending PKCE verifiers, one per auth host
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
