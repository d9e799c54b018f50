package tasks

import (
	"github.com/desertthunder/bpmx/internal/models"
)

// State is the controller's position in a request cycle.
type State int

const (
	Idle State = iota
	AwaitingAuth
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAuth:
		return "awaiting_auth"
	case InFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// ActionKind identifies the request a user asked for.
type ActionKind int

const (
	ActionAnalyzeURL ActionKind = iota
	ActionAnalyzeUpload
	ActionUpgrade
)

func (k ActionKind) String() string {
	switch k {
	case ActionAnalyzeURL:
		return "analyze_url"
	case ActionAnalyzeUpload:
		return "analyze_upload"
	case ActionUpgrade:
		return "upgrade"
	default:
		return "unknown"
	}
}

// Action is a user request, kept while the controller waits for a login.
type Action struct {
	Kind   ActionKind
	URL    string
	Upload models.Upload
}

// EventKind enumerates controller notifications.
type EventKind int

const (
	EventLoginRequired EventKind = iota
	EventResult
	EventQuota
	EventNotice
	EventUpgrade
	EventLoggedIn
	EventLoggedOut
)

func (k EventKind) String() string {
	switch k {
	case EventLoginRequired:
		return "login_required"
	case EventResult:
		return "result"
	case EventQuota:
		return "quota"
	case EventNotice:
		return "notice"
	case EventUpgrade:
		return "upgrade"
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Event reports a state change to observers.
type Event struct {
	Kind    EventKind
	Outcome models.Outcome // set for result, quota, notice and upgrade events
	Message string
	Pending *Action // set for login required
}

// View is a point-in-time copy of the controller's displayable state.
type View struct {
	State        State
	Session      models.Session
	LoggedIn     bool
	Result       *models.AnalysisResult
	ResultTitle  string
	QuotaMessage string
	Notice       string
	Pending      *Action
}
