// package formatter renders analysis history for export (CSV, Markdown, plain text, JSON)
// and saves rendered WAV artifacts to disk
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/shared"
)

// Supported export formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists every accepted export format.
var Formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

const timeLayout = "2006-01-02 15:04"

// ExportToCSV converts history entries to CSV with columns: Title, BPM, Key, Duration, Sample Rate, Download URL, Completed At
func ExportToCSV(entries []models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "BPM", "Key", "Duration", "Sample Rate", "Download URL", "Completed At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.Title,
			models.FormatBPM(e.TempoBPM),
			e.Key,
			e.Duration,
			e.SampleRate,
			e.DownloadURL,
			e.CompletedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders history as a Markdown table
func ExportToMarkdown(entries []models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Analysis History\n\n")
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(entries)))

	if len(entries) == 0 {
		buf.WriteString("_No analyses yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Title | BPM | Key | Duration | Sample Rate | Completed | Download |\n")
	buf.WriteString("|---|---|---|---|---|---|---|---|\n")
	for i, e := range entries {
		download := models.Placeholder
		if e.DownloadURL != "" {
			download = fmt.Sprintf("[wav](%s)", e.DownloadURL)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
			i+1,
			escapeCell(e.Title),
			models.FormatBPM(e.TempoBPM),
			escapeCell(e.Key),
			e.Duration,
			e.SampleRate,
			e.CompletedAt.Format(timeLayout),
			download,
		))
	}

	return buf.Bytes(), nil
}

// ExportToText renders history as plain text, one entry per line
func ExportToText(entries []models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Analyses: %d\n\n", len(entries)))
	for i, e := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s\n   %s\n   %s\n", i+1, e.Title, e.Result().Summary(), e.CompletedAt.Format(timeLayout)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders history as indented JSON
func ExportToJSON(entries []models.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return shared.MarshalJSON(entries, true)
}

// Export renders entries in the named format
func Export(entries []models.HistoryEntry, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(entries)
	case FormatMarkdown, "md":
		return ExportToMarkdown(entries)
	case FormatText, "text":
		return ExportToText(entries)
	case FormatJSON:
		return ExportToJSON(entries)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (use %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders entries and writes them to path, creating parent directories
func WriteExport(entries []models.HistoryEntry, format, path string) error {
	data, err := Export(entries, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// FormatResult renders a result block for terminal output
func FormatResult(title string, r models.AnalysisResult) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	fmt.Fprintf(&b, "  BPM:         %s\n", r.BPM())
	fmt.Fprintf(&b, "  Key:         %s\n", r.Key)
	fmt.Fprintf(&b, "  Duration:    %s\n", r.Duration)
	fmt.Fprintf(&b, "  Sample rate: %s\n", r.SampleRate)
	if r.HasDownload() {
		fmt.Fprintf(&b, "  Download:    %s\n", r.DownloadURL)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ArtifactFilename picks a local file name for a download link, falling back to the title
func ArtifactFilename(rawURL, title string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}

	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, title)
	if name == "" {
		name = "analysis"
	}
	return name + ".wav"
}

// DownloadArtifact saves the file at rawURL to dest and returns the number of bytes written.
// A nil client uses a 5 minute timeout.
func DownloadArtifact(ctx context.Context, client *http.Client, rawURL, dest string) (int64, error) {
	if rawURL == "" {
		return 0, shared.ErrNoDownload
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to download artifact: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: failed to download artifact: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("failed to write artifact: %w", err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("failed to save artifact: %w", err)
	}

	return n, nil
}
