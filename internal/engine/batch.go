package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rsawant/fieldledger/internal/classify"
	"github.com/rsawant/fieldledger/internal/common"
	"github.com/rsawant/fieldledger/internal/model"
)

const reasonParsingFailed = "parsing_failed"

// candidateResult holds the outcome for one batch candidate, addressed by
// its split index so message order survives concurrent completion.
type candidateResult struct {
	saved  *model.SavedEntry
	failed *model.FailedEntry
}

// ProcessBatch splits a multi-entry message, classifies every candidate
// synchronously, extracts the survivors (concurrently when more than one
// candidate and more than one key are available), and aggregates results
// in original message order. Exceeding the batch ceiling is a hard
// rejection: nothing is processed and no AI call is made.
func (e *Engine) ProcessBatch(ctx context.Context, text string, entryType model.EntryType) (*model.BatchResult, error) {
	start := e.clock()

	candidates := SplitEntries(text)
	total := len(candidates)

	if total > e.opts.MaxBatchSize {
		e.logger.Warn("batch rejected, too many entries",
			"entries", total,
			"limit", e.opts.MaxBatchSize)
		result := &model.BatchResult{
			Failed:         total,
			Total:          total,
			ProcessingTime: e.clock().Sub(start),
		}
		for i, c := range candidates {
			result.FailedEntries = append(result.FailedEntries, model.FailedEntry{
				Text:   c,
				Reason: fmt.Sprintf("batch limit of %d entries exceeded", e.opts.MaxBatchSize),
				Index:  i + 1,
			})
		}
		return result, common.ErrBatchTooLarge
	}

	results := make([]candidateResult, total)

	// Classification is cheap and runs inline; only survivors cost an
	// extraction call.
	survivors := make([]int, 0, total)
	for i, candidate := range candidates {
		cls := classify.Classify(candidate)
		if !cls.IsValid {
			results[i] = candidateResult{failed: &model.FailedEntry{
				Text:   candidate,
				Reason: string(cls.Reason),
				Index:  i + 1,
			}}
			continue
		}
		survivors = append(survivors, i)
	}

	keys := e.extractor.Keys()
	useParallel := len(survivors) > 1 && len(keys) > 1

	if useParallel {
		e.extractParallel(ctx, candidates, survivors, keys, entryType, results)
	} else {
		for _, i := range survivors {
			results[i] = e.extractOne(ctx, candidates[i], i, "", entryType)
		}
	}

	result := &model.BatchResult{
		Total:          total,
		UsedParallel:   useParallel,
		ProcessingTime: e.clock().Sub(start),
	}
	for _, r := range results {
		switch {
		case r.saved != nil:
			result.SavedEntries = append(result.SavedEntries, *r.saved)
			result.Processed++
			for _, w := range r.saved.Warnings {
				result.Warnings = append(result.Warnings, batchIndexWarning(r.saved.Index, w))
			}
		case r.failed != nil:
			result.FailedEntries = append(result.FailedEntries, *r.failed)
			result.Failed++
		}
	}

	e.logger.Info("batch processed",
		"total", result.Total,
		"processed", result.Processed,
		"failed", result.Failed,
		"parallel", result.UsedParallel,
		"duration", result.ProcessingTime)

	return result, nil
}

// extractParallel dispatches extraction for the surviving candidates across
// the available keys with a bounded worker pool. Results land in the
// index-addressed results slice, never in completion order.
func (e *Engine) extractParallel(
	ctx context.Context,
	candidates []string,
	survivors []int,
	keys []string,
	entryType model.EntryType,
	results []candidateResult,
) {
	sem := make(chan struct{}, e.opts.MaxWorkers)
	var wg sync.WaitGroup

	for n, idx := range survivors {
		wg.Add(1)
		preferred := keys[n%len(keys)]
		go func(idx int, preferred string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = candidateResult{failed: &model.FailedEntry{
					Text:   candidates[idx],
					Reason: ctx.Err().Error(),
					Index:  idx + 1,
				}}
				return
			}

			results[idx] = e.extractOne(ctx, candidates[idx], idx, preferred, entryType)
		}(idx, preferred)
	}

	wg.Wait()
}

// extractOne runs AI extraction and validation for a single candidate.
func (e *Engine) extractOne(ctx context.Context, candidate string, idx int, preferred string, entryType model.EntryType) candidateResult {
	if preferred == "" {
		if keys := e.extractor.Keys(); len(keys) > 0 {
			preferred = keys[0]
		}
	}

	parsed := e.extractor.ExtractWithKey(ctx, candidate, preferred)
	if parsed == nil || !parsed.IsComplete() {
		return candidateResult{failed: &model.FailedEntry{
			Text:   candidate,
			Reason: reasonParsingFailed,
			Index:  idx + 1,
		}}
	}

	entry, warnings := e.finishEntry(*parsed, candidate, entryType)
	return candidateResult{saved: &model.SavedEntry{
		Entry:        entry,
		OriginalText: candidate,
		Warnings:     warnings,
		Index:        idx + 1,
	}}
}
