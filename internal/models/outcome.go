package models

// OutcomeKind enumerates the normalized results of a dispatched request.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeAuthRejected
	OutcomeQuotaExceeded
	OutcomeServerError
	OutcomeNetworkFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAuthRejected:
		return "auth_rejected"
	case OutcomeQuotaExceeded:
		return "quota_exceeded"
	case OutcomeServerError:
		return "server_error"
	case OutcomeNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

// User-facing defaults used when the service sends no detail.
const (
	DefaultQuotaMessage   = "Daily limit reached"
	DefaultNetworkMessage = "Network error. Check the backend URL and your connection."
	AuthRejectedMessage   = "Session expired. Please log in again."
)

// Outcome is the classified result of exactly one request.
//
// Only the fields relevant to Kind are set:
//   - success: Result (analysis) or Upgrade (plan change), plus Title when the service sent one
//   - quota exceeded, server error, network failure: Message
//   - network failure: Err holds the transport error for logging
type Outcome struct {
	Kind    OutcomeKind
	Result  *AnalysisResult
	Upgrade *UpgradeResult
	Title   string
	Message string
	Err     error
}

// Succeeded builds a successful analysis outcome.
func Succeeded(result AnalysisResult, title string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Result: &result, Title: title}
}

// Upgraded builds a successful upgrade outcome.
func Upgraded(result UpgradeResult) Outcome {
	return Outcome{Kind: OutcomeSuccess, Upgrade: &result}
}

// AuthRejected builds the outcome for a 401 response.
func AuthRejected() Outcome {
	return Outcome{Kind: OutcomeAuthRejected, Message: AuthRejectedMessage}
}

// QuotaExceeded builds the outcome for a 403 response, defaulting the message.
func QuotaExceeded(message string) Outcome {
	if message == "" {
		message = DefaultQuotaMessage
	}
	return Outcome{Kind: OutcomeQuotaExceeded, Message: message}
}

// ServerError builds the outcome for any other failed response.
func ServerError(message string) Outcome {
	return Outcome{Kind: OutcomeServerError, Message: message}
}

// NetworkFailure builds the outcome for a request that never got a response.
func NetworkFailure(err error) Outcome {
	return Outcome{Kind: OutcomeNetworkFailure, Message: DefaultNetworkMessage, Err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }
