// Package repositories implements SQLite persistence for the client's durable state.
//
// Key Implementations:
//   - [CredentialRepository] : session fields (token, email, plan) stored as a key/value group
//   - [MemoryCredentialStore] : process-local [CredentialStore] for tests and ephemeral runs
//   - [HistoryRepository] : best-effort cache of the most recent analyses
//
// Credential groups are written and removed inside a single transaction so readers never
// observe a token without its email and plan.
package repositories
