package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/bpmx/internal/models"
)

var _ list.Item = historyItem{}

// historyItem wraps [models.HistoryEntry] to implement [list.Item].
type historyItem struct {
	entry models.HistoryEntry
}

func (i historyItem) FilterValue() string { return i.entry.Title }
func (i historyItem) Title() string       { return i.entry.Title }
func (i historyItem) Description() string {
	desc := fmt.Sprintf("%s BPM • %s • %s", i.entry.Result().BPM(), i.entry.Key, i.entry.CompletedAt.Format("Jan 2 15:04"))
	if i.entry.DownloadURL != "" {
		desc += " • wav"
	}
	return desc
}
