package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultBatchRate is the number of analyses started per second when unset.
const DefaultBatchRate = 0.5

// BatchOpts configures [Controller.AnalyzeBatch].
type BatchOpts struct {
	RateLimit float64 // Requests per second (default: 0.5)
}

// BatchItem is the result for one URL.
type BatchItem struct {
	URL     string
	Outcome models.Outcome
	Err     error // guard or classification error; nil on success
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Items     []BatchItem
	Total     int
	Succeeded int
	Failed    int
	Stopped   error // non-nil when the run ended before the last URL
}

// AnalyzeBatch analyzes urls one at a time. Blank entries are skipped.
// The run stops when the session is rejected or missing, or when ctx ends.
func (c *Controller) AnalyzeBatch(ctx context.Context, urls []string, opts BatchOpts, progress chan<- ProgressUpdate) (*BatchResult, error) {
	queue := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" && !strings.HasPrefix(u, "#") {
			queue = append(queue, u)
		}
	}
	if len(queue) == 0 {
		return nil, fmt.Errorf("%w: no URLs to analyze", shared.ErrMissingArgument)
	}

	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultBatchRate
	}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	result := &BatchResult{Total: len(queue), Items: make([]BatchItem, 0, len(queue))}
	total := len(queue)

	for i, url := range queue {
		step := i + 1

		if err := limiter.Wait(ctx); err != nil {
			result.Stopped = err
			sendProgress(progress, batchStoppedUpdate(i, total, err))
			break
		}

		sendProgress(progress, analyzeItemUpdate(step, total, url))

		outcome, err := c.AnalyzeURL(ctx, url)
		if err == nil {
			err = OutcomeError(outcome)
		}

		result.Items = append(result.Items, BatchItem{URL: url, Outcome: outcome, Err: err})
		if err == nil {
			result.Succeeded++
			sendProgress(progress, itemCompleteUpdate(step, total, url, outcome.Result))
			continue
		}

		result.Failed++
		sendProgress(progress, itemFailedUpdate(step, total, url, err))

		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrSessionExpired) ||
			errors.Is(err, shared.ErrStaleResponse) || ctx.Err() != nil {
			result.Stopped = err
			sendProgress(progress, batchStoppedUpdate(step, total, err))
			break
		}
	}

	c.logger.Info("batch complete", "total", result.Total, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
