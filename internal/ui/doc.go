// Package ui implements an interactive terminal client using bubbletea's Elm architecture.
//
// Views:
//  1. [InputView] : submit a media URL or a local audio file, see the current result
//  2. [LoginView] : email/password form, toggles between log in and register
//  3. [HistoryView] : browse recent analyses, download or open their WAV renders
//
// The [Model] never talks to the network itself. Every request goes through a
// [tasks.Controller], whose state decides which view is shown: a request made without a
// session, or rejected with 401, switches to the login form, and a successful login
// re-issues the request that was waiting.
//
// A quota rejection shows a dismissible banner with an upgrade shortcut. Server and
// network failures show a one-shot notice that clears on the next key press.
package ui
