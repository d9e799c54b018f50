package tasks

import (
	"fmt"

	"github.com/desertthunder/bpmx/internal/models"
)

// ProgressUpdate represents a progress event during a batch run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current item number, starting at 1
	Total   int    // Total items in the batch
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	AnalyzeItem Phase = iota
	ItemComplete
	ItemFailed
	BatchStopped
)

func (p Phase) String() string {
	switch p {
	case AnalyzeItem:
		return "analyze_item"
	case ItemComplete:
		return "item_complete"
	case ItemFailed:
		return "item_failed"
	case BatchStopped:
		return "batch_stopped"
	default:
		return ""
	}
}

func analyzeItemUpdate(step, total int, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzeItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Analyzing %s...", step, total, url),
	}
}

func itemCompleteUpdate(step, total int, url string, result *models.AnalysisResult) ProgressUpdate {
	if result == nil {
		return ProgressUpdate{Phase: ItemComplete, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, url)}
	}
	return ProgressUpdate{
		Phase:   ItemComplete,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s: %s", step, total, url, result.Summary()),
		Data:    result,
	}
}

func itemFailedUpdate(step, total int, url string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ItemFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, url, err),
	}
}

func batchStoppedUpdate(step, total int, reason error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchStopped,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Stopped after %d of %d: %v", step, total, reason),
	}
}
