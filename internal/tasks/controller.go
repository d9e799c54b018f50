package tasks

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bpmx/internal/history"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/session"
	"github.com/desertthunder/bpmx/internal/shared"
)

// Dispatcher sends analysis and upgrade requests. Implementations never return errors;
// every path ends in a classified outcome.
type Dispatcher interface {
	AnalyzeURL(ctx context.Context, s models.Session, url string) models.Outcome
	AnalyzeUpload(ctx context.Context, s models.Session, upload models.Upload) models.Outcome
	RequestUpgrade(ctx context.Context, s models.Session, plan models.Plan) models.Outcome
}

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
	Register(ctx context.Context, creds models.Credentials) (models.Session, error)
}

// ControllerOpts wires a [Controller].
type ControllerOpts struct {
	Session       *session.Manager
	Dispatcher    Dispatcher
	Authenticator Authenticator
	History       *history.Ledger
	Logger        *log.Logger
	Events        chan<- Event     // optional
	Now           func() time.Time // defaults to time.Now
}

// Controller owns the request cycle. Safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	state      State
	session    *session.Manager
	dispatcher Dispatcher
	auth       Authenticator
	ledger     *history.Ledger
	logger     *log.Logger
	events     chan<- Event
	now        func() time.Time

	result      *models.AnalysisResult
	resultTitle string
	quota       string
	notice      string
	pending     *Action
}

// NewController creates an idle controller and registers its invalidate hook on the session.
func NewController(opts ControllerOpts) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.History == nil {
		opts.History = history.New(history.DefaultLimit, nil, opts.Logger)
	}

	c := &Controller{
		session:    opts.Session,
		dispatcher: opts.Dispatcher,
		auth:       opts.Authenticator,
		ledger:     opts.History,
		logger:     opts.Logger,
		events:     opts.Events,
		now:        opts.Now,
	}
	opts.Session.OnInvalidate(c.clearSessionScoped)
	return c
}

// clearSessionScoped drops state that belonged to the ended session.
func (c *Controller) clearSessionScoped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
	c.resultTitle = ""
	c.quota = ""
}

// sendEvent sends an event through the channel without blocking.
func (c *Controller) sendEvent(e Event) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- e:
	default:
		c.logger.Debug("event dropped", "kind", e.Kind)
	}
}

// AnalyzeURL submits a media locator.
func (c *Controller) AnalyzeURL(ctx context.Context, url string) (models.Outcome, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return models.Outcome{}, fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	return c.Run(ctx, Action{Kind: ActionAnalyzeURL, URL: url})
}

// AnalyzeUpload submits file content.
func (c *Controller) AnalyzeUpload(ctx context.Context, upload models.Upload) (models.Outcome, error) {
	if upload.Content == nil {
		return models.Outcome{}, fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}
	return c.Run(ctx, Action{Kind: ActionAnalyzeUpload, Upload: upload})
}

// RequestUpgrade asks for the pro plan.
func (c *Controller) RequestUpgrade(ctx context.Context) (models.Outcome, error) {
	return c.Run(ctx, Action{Kind: ActionUpgrade})
}

// Run performs one request cycle for action. It is how a pending action is re-issued after login.
func (c *Controller) Run(ctx context.Context, action Action) (models.Outcome, error) {
	s, err := c.begin(action)
	if err != nil {
		return models.Outcome{}, err
	}

	c.logger.Debug("dispatching", "action", action.Kind)

	var outcome models.Outcome
	switch action.Kind {
	case ActionAnalyzeURL:
		outcome = c.dispatcher.AnalyzeURL(ctx, s, action.URL)
	case ActionAnalyzeUpload:
		outcome = c.dispatcher.AnalyzeUpload(ctx, s, action.Upload)
	case ActionUpgrade:
		outcome = c.dispatcher.RequestUpgrade(ctx, s, models.PlanPro)
	default:
		outcome = models.ServerError(fmt.Sprintf("unsupported action %v", action.Kind))
	}

	return outcome, c.complete(ctx, s.Token, action, outcome)
}

// begin moves Idle or AwaitingAuth to InFlight, or records the action and requests a login.
func (c *Controller) begin(action Action) (models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == InFlight {
		return models.Session{}, shared.ErrRequestInFlight
	}

	c.quota = ""

	s, ok := c.session.Current()
	if !ok {
		c.state = AwaitingAuth
		c.pending = &action
		c.sendEvent(Event{Kind: EventLoginRequired, Pending: &action})
		return models.Session{}, shared.ErrNotAuthenticated
	}

	c.state = InFlight
	return s, nil
}

// complete applies the outcome's side effects and returns the machine to Idle.
//
// The session check and the side effects share c.mu, so a logout either lands first
// and the response is stale, or lands after and its hook clears what was applied.
func (c *Controller) complete(ctx context.Context, token string, action Action, outcome models.Outcome) error {
	c.mu.Lock()
	if !c.session.Matches(token) {
		c.state = Idle
		c.mu.Unlock()
		c.logger.Warn("discarding stale response", "action", action.Kind, "outcome", outcome.Kind)
		return shared.ErrStaleResponse
	}

	if outcome.Kind == models.OutcomeAuthRejected {
		c.mu.Unlock()

		// still InFlight here, so no new request can start under the rejected token
		revoked, err := c.session.Revoke(ctx, token)
		if err != nil {
			c.logger.Error("failed to invalidate rejected session", "error", err)
		}

		c.mu.Lock()
		c.state = Idle
		if !revoked {
			c.mu.Unlock()
			c.logger.Warn("discarding stale response", "action", action.Kind, "outcome", outcome.Kind)
			return shared.ErrStaleResponse
		}
		c.pending = &action
		c.mu.Unlock()

		c.sendEvent(Event{Kind: EventLoginRequired, Outcome: outcome, Message: outcome.Message, Pending: &action})
		return nil
	}

	defer c.mu.Unlock()
	c.state = Idle

	switch outcome.Kind {
	case models.OutcomeSuccess:
		if outcome.Upgrade != nil {
			c.logger.Info("upgrade requested", "already_pro", outcome.Upgrade.AlreadyPro)
			c.sendEvent(Event{Kind: EventUpgrade, Outcome: outcome})
			return nil
		}
		if outcome.Result == nil {
			return nil
		}

		title := displayTitle(outcome.Title, action)
		c.result = outcome.Result
		c.resultTitle = title
		c.ledger.Record(history.NewEntry(*outcome.Result, title, c.now()))

		c.logger.Info("analysis complete", "title", title, "bpm", outcome.Result.BPM(), "key", outcome.Result.Key)
		c.sendEvent(Event{Kind: EventResult, Outcome: outcome})
	case models.OutcomeQuotaExceeded:
		c.quota = outcome.Message
		c.logger.Info("quota exceeded", "message", outcome.Message)
		c.sendEvent(Event{Kind: EventQuota, Outcome: outcome, Message: outcome.Message})
	case models.OutcomeServerError, models.OutcomeNetworkFailure:
		c.notice = outcome.Message
		c.sendEvent(Event{Kind: EventNotice, Outcome: outcome, Message: outcome.Message})
	}

	return nil
}

func displayTitle(title string, action Action) string {
	switch {
	case title != "":
		return title
	case action.Kind == ActionAnalyzeUpload && action.Upload.Name != "":
		return action.Upload.Name
	default:
		return models.URLTitle
	}
}

// Login authenticates, establishes the session and returns the action that was
// waiting for it, if any. The caller decides whether to re-issue it with [Controller.Run].
func (c *Controller) Login(ctx context.Context, creds models.Credentials, register bool) (*Action, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: Enter email and password", shared.ErrMissingArgument)
	}

	exchange := c.auth.Login
	if register {
		exchange = c.auth.Register
	}

	s, err := exchange(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := c.session.Establish(ctx, s); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.pending
	c.pending = nil
	if c.state == AwaitingAuth {
		c.state = Idle
	}

	c.sendEvent(Event{Kind: EventLoggedIn, Message: s.Label()})
	return pending, nil
}

// DismissAuth abandons the login prompt and drops the pending action.
func (c *Controller) DismissAuth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == AwaitingAuth {
		c.state = Idle
	}
	c.pending = nil
}

// Logout ends the session. The displayed result and quota message go with it.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.session.Invalidate(ctx)
	c.sendEvent(Event{Kind: EventLoggedOut})
	return err
}

// DismissQuota hides the quota message.
func (c *Controller) DismissQuota() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quota = ""
}

// TakeNotice returns the pending one-shot notice and clears it.
func (c *Controller) TakeNotice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.notice
	c.notice = ""
	return n
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot copies the displayable state.
func (c *Controller) Snapshot() View {
	s, ok := c.session.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:        c.state,
		Session:      s,
		LoggedIn:     ok,
		ResultTitle:  c.resultTitle,
		QuotaMessage: c.quota,
		Notice:       c.notice,
	}
	if c.result != nil {
		r := *c.result
		v.Result = &r
	}
	if c.pending != nil {
		p := *c.pending
		v.Pending = &p
	}
	return v
}

// History yields recorded analyses, newest first.
func (c *Controller) History() iter.Seq[models.HistoryEntry] {
	return c.ledger.All()
}

// Ledger exposes the underlying history ledger.
func (c *Controller) Ledger() *history.Ledger { return c.ledger }

// OutcomeError converts a failed outcome into an error wrapping the matching sentinel.
func OutcomeError(o models.Outcome) error {
	switch o.Kind {
	case models.OutcomeSuccess:
		return nil
	case models.OutcomeAuthRejected:
		return fmt.Errorf("%w: %s", shared.ErrSessionExpired, o.Message)
	case models.OutcomeQuotaExceeded:
		return fmt.Errorf("%w: %s", shared.ErrQuotaExceeded, o.Message)
	case models.OutcomeNetworkFailure:
		return fmt.Errorf("%w: %s", shared.ErrNetwork, o.Message)
	default:
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, o.Message)
	}
}
