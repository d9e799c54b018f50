package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/bpmx/internal/formatter"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/shared"
	"github.com/desertthunder/bpmx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	LoginView
	HistoryView
)

type inputMode int

const (
	modeURL inputMode = iota
	modeFile
)

// Options wires the TUI to its collaborators. Zero values fall back to
// the working directory, [shared.OpenBrowser] and [formatter.DownloadArtifact].
type Options struct {
	Controller  *tasks.Controller
	DownloadDir string
	OpenBrowser func(url string) error
	Download    func(ctx context.Context, url, dest string) (int64, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	ctl         *tasks.Controller
	downloadDir string
	openBrowser func(string) error
	download    func(context.Context, string, string) (int64, error)

	width    int
	height   int
	mode     inputMode
	input    textinput.Model
	email    textinput.Model
	password textinput.Model
	focus    int
	register bool
	history  list.Model
	spinner  spinner.Model
	busy     bool
	notice   string
	status   string
	help     help.Model
	keys     keyMap

	// uploadPath is the last submitted file, reopened when a login resumes its upload.
	uploadPath string
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Download == nil {
		opts.Download = func(ctx context.Context, url, dest string) (int64, error) {
			return formatter.DownloadArtifact(ctx, nil, url, dest)
		}
	}

	input := textinput.New()
	input.Placeholder = "https://www.youtube.com/watch?v=..."
	input.Prompt = "URL  › "
	input.CharLimit = 2048
	input.Focus()

	email := textinput.New()
	email.Placeholder = "Email"
	email.Prompt = "Email    › "

	password := textinput.New()
	password.Placeholder = "Password"
	password.Prompt = "Password › "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom()))

	hl := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	hl.Title = "Recent analyses"
	hl.SetFilteringEnabled(false)
	hl.SetShowHelp(false)
	hl.DisableQuitKeybindings()

	return &Model{
		ctx:         ctx,
		view:        InputView,
		ctl:         opts.Controller,
		downloadDir: opts.DownloadDir,
		openBrowser: opts.OpenBrowser,
		download:    opts.Download,
		input:       input,
		email:       email,
		password:    password,
		history:     hl,
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-12, 20)
		m.history.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		m.notice = ""

		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case LoginView:
			return m.handleLoginKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}
	}

	return m.updateFocused(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgOutcome:
		data := msg.data.(outcomeData)
		m.busy = false
		return m, m.applyOutcome(data)

	case MsgLogin:
		data := msg.data.(loginData)
		m.busy = false
		if data.err != nil {
			m.notice = loginError(data.err)
			return m, nil
		}
		m.password.SetValue("")
		m.setView(InputView)
		m.status = "Logged in as " + m.ctl.Snapshot().Session.Label()
		if data.pending != nil {
			action := *data.pending
			if action.Kind == tasks.ActionAnalyzeUpload {
				// the file handle was closed when the first attempt returned
				action.Upload = models.Upload{Name: m.uploadPath}
			}
			return m, m.run(action)
		}
		return m, nil

	case MsgDownload:
		data := msg.data.(downloadData)
		m.busy = false
		if data.err != nil {
			m.notice = fmt.Sprintf("Download failed: %v", data.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Saved %s (%d bytes)", data.path, data.bytes)
		return m, nil

	case MsgBrowser:
		if err, _ := msg.data.(error); err != nil {
			m.notice = fmt.Sprintf("Could not open browser: %v", err)
		}
		return m, nil
	}
	return m, nil
}

// applyOutcome reconciles the view with the controller after a request cycle.
func (m *Model) applyOutcome(data outcomeData) tea.Cmd {
	switch {
	case errors.Is(data.err, shared.ErrRequestInFlight):
		m.status = "A request is already running."
		return nil
	case errors.Is(data.err, shared.ErrStaleResponse):
		return nil
	case data.err != nil && !errors.Is(data.err, shared.ErrNotAuthenticated):
		m.notice = data.err.Error()
		return nil
	}

	if errors.Is(data.err, shared.ErrNotAuthenticated) {
		m.setView(LoginView)
		return nil
	}
	if data.outcome.Kind == models.OutcomeAuthRejected {
		m.setView(LoginView)
		m.notice = data.outcome.Message
		return nil
	}

	if n := m.ctl.TakeNotice(); n != "" {
		m.notice = n
	}

	if data.outcome.OK() {
		if up := data.outcome.Upgrade; up != nil {
			if up.AlreadyPro {
				m.status = "You're already on PRO."
				return nil
			}
			m.status = "Opening checkout in your browser..."
			return m.openURL(up.InvoiceURL)
		}
		m.status = ""
		m.input.SetValue("")
	}
	return nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.mode):
		m.toggleMode()
		return m, nil
	case key.Matches(msg, m.keys.history):
		m.refreshHistory()
		m.setView(HistoryView)
		return m, nil
	case key.Matches(msg, m.keys.account):
		if m.ctl.Snapshot().LoggedIn {
			if err := m.ctl.Logout(m.ctx); err != nil {
				m.notice = err.Error()
			}
			m.status = "Logged out."
			return m, nil
		}
		m.setView(LoginView)
		return m, nil
	case key.Matches(msg, m.keys.upgrade):
		return m, m.run(tasks.Action{Kind: tasks.ActionUpgrade})
	case key.Matches(msg, m.keys.dismiss):
		m.ctl.DismissQuota()
		return m, nil
	case key.Matches(msg, m.keys.download):
		v := m.ctl.Snapshot()
		if v.Result == nil {
			return m, nil
		}
		return m, m.save(v.Result.DownloadURL, v.ResultTitle)
	case key.Matches(msg, m.keys.open):
		if v := m.ctl.Snapshot(); v.Result != nil && v.Result.HasDownload() {
			return m, m.openURL(v.Result.DownloadURL)
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.ctl.DismissAuth()
		m.setView(InputView)
		return m, nil
	case key.Matches(msg, m.keys.nextField):
		m.focus = (m.focus + 1) % 2
		m.focusLogin()
		return m, nil
	case key.Matches(msg, m.keys.toggleAuth):
		m.register = !m.register
		return m, nil
	case key.Matches(msg, m.keys.submit):
		if m.focus == 0 && m.password.Value() == "" {
			m.focus = 1
			m.focusLogin()
			return m, nil
		}
		return m, m.login()
	}

	return m.updateFocused(msg)
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.history):
		m.setView(InputView)
		return m, nil
	case key.Matches(msg, m.keys.listSave), key.Matches(msg, m.keys.download):
		if item, ok := m.history.SelectedItem().(historyItem); ok {
			return m, m.save(item.entry.DownloadURL, item.entry.Title)
		}
		return m, nil
	case key.Matches(msg, m.keys.listOpen), key.Matches(msg, m.keys.open):
		if item, ok := m.history.SelectedItem().(historyItem); ok {
			if item.entry.DownloadURL == "" {
				m.notice = "No download link for this item."
				return m, nil
			}
			return m, m.openURL(item.entry.DownloadURL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case InputView:
		m.input, cmd = m.input.Update(msg)
	case LoginView:
		if m.focus == 0 {
			m.email, cmd = m.email.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	case HistoryView:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

func (m *Model) setView(v ViewState) {
	m.view = v
	m.input.Blur()
	m.email.Blur()
	m.password.Blur()

	switch v {
	case InputView:
		m.input.Focus()
	case LoginView:
		if email := m.ctl.Snapshot().Session.Email; email != "" && m.email.Value() == "" {
			m.email.SetValue(email)
		}
		m.focus = 0
		m.focusLogin()
	}
}

func (m *Model) focusLogin() {
	if m.focus == 0 {
		m.password.Blur()
		m.email.Focus()
	} else {
		m.email.Blur()
		m.password.Focus()
	}
}

func (m *Model) toggleMode() {
	if m.mode == modeURL {
		m.mode = modeFile
		m.input.Prompt = "File › "
		m.input.Placeholder = "path/to/track.mp3"
	} else {
		m.mode = modeURL
		m.input.Prompt = "URL  › "
		m.input.Placeholder = "https://www.youtube.com/watch?v=..."
	}
	m.input.SetValue("")
}

func (m *Model) refreshHistory() {
	var items []list.Item
	for entry := range m.ctl.History() {
		items = append(items, historyItem{entry: entry})
	}
	m.history.SetItems(items)
	m.history.ResetSelected()
}

// submit turns the input field into an action.
func (m *Model) submit() tea.Cmd {
	value := strings.TrimSpace(m.input.Value())
	if value == "" || m.busy {
		return nil
	}

	if m.mode == modeFile {
		m.uploadPath = value
		return m.run(tasks.Action{Kind: tasks.ActionAnalyzeUpload, Upload: models.Upload{Name: value}})
	}
	return m.run(tasks.Action{Kind: tasks.ActionAnalyzeURL, URL: value})
}

// run executes one controller cycle off the update loop.
func (m *Model) run(action tasks.Action) tea.Cmd {
	m.busy = true
	m.status = ""
	return tea.Batch(m.spinner.Tick, m.runCmd(action))
}

func (m *Model) runCmd(action tasks.Action) tea.Cmd {
	return func() tea.Msg {
		if action.Kind == tasks.ActionAnalyzeUpload && action.Upload.Content == nil {
			f, err := os.Open(action.Upload.Name)
			if err != nil {
				return outcomeMsg(action, models.Outcome{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
			}
			defer f.Close()

			action.Upload = models.Upload{Name: filepath.Base(action.Upload.Name), Content: f}
			outcome, err := m.ctl.Run(m.ctx, action)
			return outcomeMsg(action, outcome, err)
		}

		outcome, err := m.ctl.Run(m.ctx, action)
		return outcomeMsg(action, outcome, err)
	}
}

func (m *Model) login() tea.Cmd {
	creds := models.Credentials{Email: strings.TrimSpace(m.email.Value()), Password: m.password.Value()}
	register := m.register
	m.busy = true

	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		pending, err := m.ctl.Login(m.ctx, creds, register)
		return loginMsg(pending, err)
	})
}

func (m *Model) save(url, title string) tea.Cmd {
	if url == "" {
		m.notice = "No download link for this item."
		return nil
	}

	dest := filepath.Join(m.downloadDir, formatter.ArtifactFilename(url, title))
	m.busy = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		n, err := m.download(m.ctx, url, dest)
		return downloadMsg(dest, n, err)
	})
}

func (m *Model) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		return browserMsg(m.openBrowser(url))
	}
}

func loginError(err error) string {
	msg := err.Error()
	if errors.Is(err, shared.ErrAuthFailed) {
		msg = strings.TrimPrefix(msg, shared.ErrAuthFailed.Error()+": ")
	}
	if errors.Is(err, shared.ErrNetwork) {
		msg = models.DefaultNetworkMessage
	}
	return msg
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	v := m.ctl.Snapshot()

	var b strings.Builder
	b.WriteString(m.renderHeader(v))
	b.WriteString("\n")

	switch m.view {
	case LoginView:
		b.WriteString(m.renderLogin())
	case HistoryView:
		b.WriteString(m.renderHistory())
	default:
		b.WriteString(m.renderInput(v))
	}

	if m.notice != "" {
		b.WriteString("\n" + styles.err.Render(m.notice) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + styles.ok.Render(m.status) + "\n")
	}
	return b.String()
}

func (m *Model) renderHeader(v tasks.View) string {
	account := styles.help.Render("Not logged in")
	if v.LoggedIn {
		account = styles.ok.Render(v.Session.Label())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, styles.title.Render("bpmx"), "  ", account)
}

func (m *Model) renderInput(v tasks.View) string {
	var b strings.Builder

	if v.QuotaMessage != "" {
		banner := fmt.Sprintf("Free limit reached\n%s\n%s", v.QuotaMessage,
			m.help.ShortHelpView([]key.Binding{m.keys.upgrade, m.keys.dismiss}))
		b.WriteString(styles.banner.Render(banner) + "\n\n")
	}

	b.WriteString(m.input.View() + "\n")

	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " Analyzing...\n")
	}

	if v.Result != nil {
		b.WriteString("\n" + styles.panel.Render(renderResult(v.ResultTitle, *v.Result)) + "\n")
	}

	keys := []key.Binding{m.keys.submit, m.keys.mode, m.keys.history, m.keys.account, m.keys.upgrade}
	if v.Result != nil && v.Result.HasDownload() {
		keys = append(keys, m.keys.download, m.keys.open)
	}
	keys = append(keys, m.keys.quit)
	b.WriteString("\n" + m.help.ShortHelpView(keys))
	return b.String()
}

func renderResult(title string, r models.AnalysisResult) string {
	rows := []string{
		styles.ok.Render(title),
		styles.label.Render("BPM") + r.BPM(),
		styles.label.Render("Key") + r.Key,
		styles.label.Render("Duration") + r.Duration,
		styles.label.Render("Sample rate") + r.SampleRate,
	}
	if r.HasDownload() {
		rows = append(rows, styles.label.Render("Download")+r.DownloadURL)
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderLogin() string {
	title := "Log in"
	if m.register {
		title = "Create account"
	}

	body := fmt.Sprintf("%s\n\n%s\n%s\n", styles.title.Render(title), m.email.View(), m.password.View())
	if m.busy {
		body += "\n" + m.spinner.View() + " Contacting server...\n"
	}

	keys := []key.Binding{m.keys.submit, m.keys.nextField, m.keys.toggleAuth, m.keys.back, m.keys.quit}
	return body + "\n" + m.help.ShortHelpView(keys)
}

func (m *Model) renderHistory() string {
	if len(m.history.Items()) == 0 {
		return styles.help.Render("No analyses yet.") + "\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	}

	keys := []key.Binding{m.keys.listSave, m.keys.listOpen, m.keys.back, m.keys.quit}
	return m.history.View() + "\n" + m.help.ShortHelpView(keys)
}
