// Package models defines the domain values shared by the bpmx session, dispatch and history layers.
//
// The package contains three groups of types:
//
// 1. Identity: who is talking to the analysis service
//   - [Session] : bearer token, account email and [Plan] tier
//   - [Credentials] : email/password pair for the login and register exchanges
//
// 2. Analysis data: what the service returned
//   - [AnalysisResult] : tempo, key, duration, sample rate and an optional download link
//   - [HistoryEntry] : a titled, timestamped copy of a result kept in the history ledger
//   - [UpgradeResult] : response to a plan upgrade request
//
// 3. Request plumbing
//   - [Upload] : file content submitted for analysis
//   - [Outcome] : the normalized, tagged result of one request; never persisted
//
// Values in this package are plain data. Durable state lives in repositories and
// mutation rules live in the session, history and tasks packages.
package models
