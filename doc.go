// Package accounts provides the account identity core for a marketing site
// backend: credential storage, password verification, external identity
// resolution, and durable server-side sessions.
//
// Identity lifecycle:
//   - Identities carry an email, a unique login handle, an optional bcrypt
//     password hash, and an optional external provider subject. An identity
//     created through signup has a password; one created through an external
//     provider starts without one. Linking records the provider subject on an
//     existing row exactly once.
//   - The external resolver (package external) maps a provider profile to
//     exactly one identity per resolution, matching by provider subject first
//     and by email second, creating the identity only when neither matches.
//
// Sessions:
//   - SessionManager issues opaque random tokens persisted through a
//     SessionStore. Validation rolls the expiry forward on every hit so an
//     active session stays alive; Destroy is idempotent. The bun-backed store
//     survives restarts, the in-memory store is for tests and degraded runs.
//
// HTTP surface:
//   - Controller mounts the signup, login, logout, and me endpoints on a fiber
//     router, sets the session cookie, and renders go-errors values as JSON
//     with their text codes.
package accounts
