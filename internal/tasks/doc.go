// Package tasks sequences analysis requests: ensure a session, dispatch, classify, apply.
//
// # Controller
//
// [Controller] is a re-entrant state machine with three states:
//
//	Idle ──submit, no session──▶ AwaitingAuth ──Login──▶ Idle (pending action returned)
//	  │                               └──DismissAuth──▶ Idle (pending action dropped)
//	  └──submit, session──▶ InFlight ──any outcome──▶ Idle
//
// A 401 also returns to Idle. The session is invalidated and the rejected action is
// kept as pending, so the next [Controller.Login] returns it for re-issue.
//
// Only one request may be in flight. A second submission while InFlight returns
// [shared.ErrRequestInFlight] and never reaches the [Dispatcher].
//
// Side effects per outcome:
//   - success : current result replaced, history entry recorded
//   - auth rejected : session invalidated, login requested
//   - quota exceeded : dismissible quota message set, session kept
//   - server error, network failure : one-shot notice
//
// An outcome that arrives after the session it was issued under has ended is stale.
// Its side effects are discarded and [shared.ErrStaleResponse] is returned.
//
// # Events
//
// Observers receive [Event] values on an optional channel. Sends never block; a full
// channel drops the event. State can always be read with [Controller.Snapshot].
//
// # Batch analysis
//
// [Controller.AnalyzeBatch] runs URL analyses one after another under a
// [rate.Limiter], reporting [ProgressUpdate] values, and stops when the session is
// rejected or the context ends.
package tasks
