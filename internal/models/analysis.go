package models

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// Placeholder is displayed in place of values the analysis service did not report.
const Placeholder = "—"

// URLTitle labels URL submissions whose response carries no title.
const URLTitle = "YouTube audio"

// AnalysisResult is the musical metadata returned by a successful analysis.
type AnalysisResult struct {
	TempoBPM    float64 `json:"bpm"`
	Key         string  `json:"key"`
	Duration    string  `json:"duration"`
	SampleRate  string  `json:"sample_rate"`
	DownloadURL string  `json:"download_url,omitempty"` // empty when the service rendered no artifact
}

// HasDownload reports whether a rendered artifact is available.
func (r AnalysisResult) HasDownload() bool { return r.DownloadURL != "" }

// BPM formats the tempo without trailing zeros (128, 127.5).
func (r AnalysisResult) BPM() string {
	return FormatBPM(r.TempoBPM)
}

// Summary renders "128 BPM · A minor · 3:24 · 44.1kHz".
func (r AnalysisResult) Summary() string {
	return fmt.Sprintf("%s BPM · %s · %s · %s", r.BPM(), r.Key, r.Duration, r.SampleRate)
}

// FormatBPM formats a tempo value the way the service reports it.
func FormatBPM(bpm float64) string {
	return strconv.FormatFloat(bpm, 'f', -1, 64)
}

// HistoryEntry is a completed analysis recorded in the history ledger.
type HistoryEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	TempoBPM    float64   `json:"bpm"`
	Key         string    `json:"key"`
	Duration    string    `json:"duration"`
	SampleRate  string    `json:"sample_rate"`
	DownloadURL string    `json:"download_url"`
	CompletedAt time.Time `json:"completed_at"`
}

// Result returns the analysis fields of the entry.
func (h HistoryEntry) Result() AnalysisResult {
	return AnalysisResult{
		TempoBPM:    h.TempoBPM,
		Key:         h.Key,
		Duration:    h.Duration,
		SampleRate:  h.SampleRate,
		DownloadURL: h.DownloadURL,
	}
}

// UpgradeResult is the billing service's answer to a plan upgrade request.
type UpgradeResult struct {
	AlreadyPro bool   `json:"already_pro"`
	InvoiceURL string `json:"invoice_url,omitempty"`
}

// Upload is a local file submitted for analysis.
type Upload struct {
	Name    string    // file name sent as the multipart filename and used as the display title
	Content io.Reader // raw bytes; type and size are validated by the service
}
