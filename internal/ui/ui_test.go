package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/bpmx/internal/history"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/repositories"
	"github.com/desertthunder/bpmx/internal/session"
	"github.com/desertthunder/bpmx/internal/tasks"
	tu "github.com/desertthunder/bpmx/internal/testing"
)

var (
	testSession = models.Session{Token: "tok", Email: "dj@example.com", Plan: models.PlanFree}
	sampleHit   = models.AnalysisResult{TempoBPM: 128, Key: "A minor", Duration: "3:24", SampleRate: "44.1kHz"}
	completedAt = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
)

type stubDispatcher struct {
	mu      sync.Mutex
	outcome models.Outcome
	urls    []string
}

func (d *stubDispatcher) AnalyzeURL(_ context.Context, _ models.Session, url string) models.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	return d.outcome
}

func (d *stubDispatcher) AnalyzeUpload(context.Context, models.Session, models.Upload) models.Outcome {
	return d.outcome
}

func (d *stubDispatcher) RequestUpgrade(context.Context, models.Session, models.Plan) models.Outcome {
	return d.outcome
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, models.Credentials) (models.Session, error) {
	return testSession, nil
}

func (stubAuth) Register(context.Context, models.Credentials) (models.Session, error) {
	return testSession, nil
}

type fixture struct {
	model  *Model
	disp   *stubDispatcher
	ledger *history.Ledger
	opened []string
	saved  []string
}

func newFixture(t *testing.T, loggedIn bool, outcome models.Outcome) *fixture {
	t.Helper()
	logger := tu.NewDiscardLogger()
	sess := session.NewManager(repositories.NewMemoryCredentialStore(), logger)
	if loggedIn {
		if err := sess.Establish(context.Background(), testSession); err != nil {
			t.Fatalf("failed to establish session: %v", err)
		}
	}

	f := &fixture{
		disp:   &stubDispatcher{outcome: outcome},
		ledger: history.New(history.DefaultLimit, nil, logger),
	}
	ctl := tasks.NewController(tasks.ControllerOpts{
		Session:       sess,
		Dispatcher:    f.disp,
		Authenticator: stubAuth{},
		History:       f.ledger,
		Logger:        logger,
	})
	f.model = NewModel(context.Background(), Options{
		Controller:  ctl,
		DownloadDir: t.TempDir(),
		OpenBrowser: func(url string) error {
			f.opened = append(f.opened, url)
			return nil
		},
		Download: func(_ context.Context, url, dest string) (int64, error) {
			f.saved = append(f.saved, dest)
			return 42, nil
		},
	})
	return f
}

// settle runs cmd and every command it produces, feeding [Msg] values back into the model.
func (f *fixture) settle(cmd tea.Cmd) {
	for _, msg := range execute(cmd) {
		if m, ok := msg.(Msg); ok {
			_, next := f.model.Update(m)
			f.settle(next)
		}
	}
}

func (f *fixture) press(msg tea.KeyMsg) {
	_, cmd := f.model.Update(msg)
	f.settle(cmd)
}

func execute(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, execute(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	t.Run("Submit shows the analysis result", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, "Night Drive"))
		f.model.input.SetValue("https://youtu.be/abc")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		out := f.model.View()
		for _, want := range []string{"Night Drive", "128", "A minor", "44.1kHz", "dj@example.com (free)"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected view to contain %q, got:\n%s", want, out)
			}
		}
		if f.model.busy {
			t.Error("expected spinner to stop")
		}
		if f.ledger.Len() != 1 {
			t.Errorf("expected one history entry, got %d", f.ledger.Len())
		}
	})

	t.Run("Blank input does nothing", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		f.model.input.SetValue("   ")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		if len(f.disp.urls) != 0 {
			t.Errorf("expected no dispatch, got %v", f.disp.urls)
		}
	})

	t.Run("Login resumes the pending analysis", func(t *testing.T) {
		f := newFixture(t, false, models.Succeeded(sampleHit, "Resumed"))
		f.model.input.SetValue("https://youtu.be/abc")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		if f.model.view != LoginView {
			t.Fatalf("expected login view, got %v", f.model.view)
		}

		f.model.email.SetValue("dj@example.com")
		f.model.password.SetValue("secret")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		if f.model.view != InputView {
			t.Fatalf("expected input view after login, got %v", f.model.view)
		}
		if len(f.disp.urls) != 1 || f.disp.urls[0] != "https://youtu.be/abc" {
			t.Errorf("expected pending URL to be dispatched once, got %v", f.disp.urls)
		}
		if !strings.Contains(f.model.View(), "Resumed") {
			t.Error("expected resumed result in view")
		}
	})

	t.Run("Escape dismisses the login prompt", func(t *testing.T) {
		f := newFixture(t, false, models.Succeeded(sampleHit, ""))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlL})
		if f.model.view != LoginView {
			t.Fatalf("expected login view, got %v", f.model.view)
		}

		f.press(tea.KeyMsg{Type: tea.KeyEsc})
		if f.model.view != InputView {
			t.Errorf("expected input view, got %v", f.model.view)
		}
		if f.model.ctl.State() != tasks.Idle {
			t.Errorf("expected idle controller, got %v", f.model.ctl.State())
		}
	})

	t.Run("Rejected token returns to login with a notice", func(t *testing.T) {
		f := newFixture(t, true, models.AuthRejected())
		f.model.input.SetValue("https://youtu.be/abc")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		if f.model.view != LoginView {
			t.Fatalf("expected login view, got %v", f.model.view)
		}
		if f.model.notice != models.AuthRejectedMessage {
			t.Errorf("expected %q, got %q", models.AuthRejectedMessage, f.model.notice)
		}
		if f.model.email.Value() != "" {
			t.Errorf("expected cleared session to leave email empty, got %q", f.model.email.Value())
		}

		f.disp.outcome = models.Succeeded(sampleHit, "Retried")
		f.model.email.SetValue("dj@example.com")
		f.model.password.SetValue("secret")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		if f.model.view != InputView {
			t.Fatalf("expected input view after login, got %v", f.model.view)
		}
		if len(f.disp.urls) != 2 {
			t.Errorf("expected rejected request to be re-issued, got %v", f.disp.urls)
		}
		if !strings.Contains(f.model.View(), "Retried") {
			t.Error("expected retried result in view")
		}
	})

	t.Run("Quota banner shows and dismisses", func(t *testing.T) {
		f := newFixture(t, true, models.QuotaExceeded("3 of 3 used"))
		f.model.input.SetValue("https://youtu.be/abc")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		out := f.model.View()
		if !strings.Contains(out, "Free limit reached") || !strings.Contains(out, "3 of 3 used") {
			t.Fatalf("expected quota banner, got:\n%s", out)
		}

		f.press(tea.KeyMsg{Type: tea.KeyCtrlX})
		if strings.Contains(f.model.View(), "Free limit reached") {
			t.Error("expected banner to be dismissed")
		}
	})

	t.Run("Server error surfaces as notice", func(t *testing.T) {
		f := newFixture(t, true, models.ServerError("Video unavailable"))
		f.model.input.SetValue("https://youtu.be/abc")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		if f.model.notice != "Video unavailable" {
			t.Errorf("expected notice, got %q", f.model.notice)
		}
	})

	t.Run("Upgrade opens the invoice", func(t *testing.T) {
		f := newFixture(t, true, models.Upgraded(models.UpgradeResult{InvoiceURL: "https://pay/inv"}))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlU})

		if len(f.opened) != 1 || f.opened[0] != "https://pay/inv" {
			t.Errorf("expected invoice to open, got %v", f.opened)
		}
	})

	t.Run("Upgrade when already pro", func(t *testing.T) {
		f := newFixture(t, true, models.Upgraded(models.UpgradeResult{AlreadyPro: true}))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlU})

		if len(f.opened) != 0 {
			t.Errorf("expected no browser, got %v", f.opened)
		}
		if !strings.Contains(f.model.status, "already") {
			t.Errorf("unexpected status %q", f.model.status)
		}
	})

	t.Run("Logout clears the result", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, "Night Drive"))
		f.model.input.SetValue("https://youtu.be/abc")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})
		f.press(tea.KeyMsg{Type: tea.KeyCtrlL})

		out := f.model.View()
		if strings.Contains(out, "Night Drive") {
			t.Error("expected result to be cleared")
		}
		if !strings.Contains(out, "Not logged in") {
			t.Error("expected logged out header")
		}
	})

	t.Run("Mode toggle switches prompt", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlF})
		if f.model.mode != modeFile {
			t.Fatal("expected file mode")
		}
		f.press(tea.KeyMsg{Type: tea.KeyCtrlF})
		if f.model.mode != modeURL {
			t.Error("expected url mode")
		}
	})

	t.Run("Missing upload file is reported", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlF})
		f.model.input.SetValue("/does/not/exist.mp3")
		f.press(tea.KeyMsg{Type: tea.KeyEnter})

		if f.model.notice == "" {
			t.Error("expected notice for unreadable file")
		}
	})

	t.Run("Quit", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestModelHistory(t *testing.T) {
	t.Run("Empty history", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlP})

		if f.model.view != HistoryView {
			t.Fatalf("expected history view, got %v", f.model.view)
		}
		if !strings.Contains(f.model.View(), "No analyses yet.") {
			t.Error("expected empty history message")
		}
	})

	t.Run("Download without link", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		f.ledger.Record(history.NewEntry(sampleHit, "No Link", completedAt))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlP})
		f.press(runes("d"))

		if f.model.notice != "No download link for this item." {
			t.Errorf("unexpected notice %q", f.model.notice)
		}
		if len(f.saved) != 0 {
			t.Errorf("expected no download, got %v", f.saved)
		}
	})

	t.Run("Download and open selected entry", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		hit := sampleHit
		hit.DownloadURL = "https://cdn.example.com/files/track.wav"
		f.ledger.Record(history.NewEntry(hit, "Linked", completedAt))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlP})

		f.press(runes("d"))
		if len(f.saved) != 1 || !strings.HasSuffix(f.saved[0], ".wav") {
			t.Errorf("expected .wav download, got %v", f.saved)
		}
		if !strings.Contains(f.model.status, "42 bytes") {
			t.Errorf("unexpected status %q", f.model.status)
		}

		f.press(runes("o"))
		if len(f.opened) != 1 || f.opened[0] != hit.DownloadURL {
			t.Errorf("expected link to open, got %v", f.opened)
		}
	})

	t.Run("Escape returns to input", func(t *testing.T) {
		f := newFixture(t, true, models.Succeeded(sampleHit, ""))
		f.press(tea.KeyMsg{Type: tea.KeyCtrlP})
		f.press(tea.KeyMsg{Type: tea.KeyEsc})

		if f.model.view != InputView {
			t.Errorf("expected input view, got %v", f.model.view)
		}
	})
}

func TestLoginError(t *testing.T) {
	if got := loginError(errors.New("boom")); got != "boom" {
		t.Errorf("unexpected %q", got)
	}
}
