package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgOutcome MsgKind = iota
	MsgLogin
	MsgDownload
	MsgBrowser
)

type outcomeData struct {
	action  tasks.Action
	outcome models.Outcome
	err     error
}

type loginData struct {
	pending *tasks.Action
	err     error
}

type downloadData struct {
	path  string
	bytes int64
	err   error
}

// outcomeMsg is the constructor for [MsgOutcome]
func outcomeMsg(action tasks.Action, outcome models.Outcome, err error) Msg {
	return Msg{kind: MsgOutcome, data: outcomeData{action, outcome, err}}
}

// loginMsg is the constructor for [MsgLogin]
func loginMsg(pending *tasks.Action, err error) Msg {
	return Msg{kind: MsgLogin, data: loginData{pending, err}}
}

// downloadMsg is the constructor for [MsgDownload]
func downloadMsg(path string, n int64, err error) Msg {
	return Msg{kind: MsgDownload, data: downloadData{path, n, err}}
}

// browserMsg is the constructor for [MsgBrowser]
func browserMsg(err error) Msg {
	return Msg{kind: MsgBrowser, data: err}
}
