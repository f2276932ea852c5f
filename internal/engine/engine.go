// Package engine orchestrates the message-processing pipeline: classifier
// gate, structured parse, AI extraction fallback, validation, and the
// parallel batch path.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rsawant/fieldledger/internal/classify"
	"github.com/rsawant/fieldledger/internal/common"
	"github.com/rsawant/fieldledger/internal/model"
	"github.com/rsawant/fieldledger/internal/parse"
	"github.com/rsawant/fieldledger/internal/validate"
)

// Extractor is the AI fallback used when structured parsing cannot handle
// a message. A nil entry means extraction failed; the engine never treats
// that as a hard error.
type Extractor interface {
	ExtractWithKey(ctx context.Context, text, preferred string) *model.ParsedEntry
	Keys() []string
}

// Options configures the engine.
type Options struct {
	MaxBatchSize int
	MaxWorkers   int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxBatchSize: 10,
		MaxWorkers:   5,
	}
}

// Engine runs the end-to-end pipeline for single and batched messages.
type Engine struct {
	extractor Extractor
	logger    *slog.Logger
	opts      Options
	clock     func() time.Time
}

// New creates an engine over the given extractor.
func New(extractor Extractor, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 10
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 5
	}
	return &Engine{
		extractor: extractor,
		logger:    logger,
		opts:      opts,
		clock:     time.Now,
	}
}

// ProcessMessage runs one message through the full pipeline. The structured
// parser is attempted first because it is free and deterministic; the AI
// extractor only runs when it fails. A classifier rejection comes back as a
// UserError wrapping ErrInputRejected so callers can show the guidance text
// directly.
func (e *Engine) ProcessMessage(ctx context.Context, text string, entryType model.EntryType) (*model.ValidatedEntry, []string, error) {
	result := classify.Classify(text)
	if !result.IsValid {
		e.logger.Debug("input rejected by classifier", "reason", result.Reason)
		return nil, nil, common.NewUserError(result.FallbackResponse, common.ErrInputRejected)
	}

	parsed, err := parse.ParseStructured(text)
	usedAI := false
	if err != nil {
		e.logger.Debug("structured parse failed, falling back to AI", "error", err)
		extracted := e.extract(ctx, text)
		if extracted == nil || !extracted.IsComplete() {
			return nil, nil, common.ErrExtractionFailure
		}
		parsed = *extracted
		usedAI = true
	}

	entry, warnings := e.finishEntry(parsed, text, entryType)

	e.logger.Info("message processed",
		"client", entry.Client,
		"orders", entry.Orders,
		"amount", entry.Amount,
		"used_ai", usedAI,
		"warnings", len(warnings))

	return &entry, warnings, nil
}

// extract invokes the AI extractor with the first configured key as the
// preferred slot.
func (e *Engine) extract(ctx context.Context, text string) *model.ParsedEntry {
	preferred := ""
	if keys := e.extractor.Keys(); len(keys) > 0 {
		preferred = keys[0]
	}
	return e.extractor.ExtractWithKey(ctx, text, preferred)
}

// finishEntry validates and sanitizes a parsed candidate, defaulting empty
// remarks to the original message text.
func (e *Engine) finishEntry(parsed model.ParsedEntry, originalText string, entryType model.EntryType) (model.ValidatedEntry, []string) {
	if parsed.Remarks == nil || *parsed.Remarks == "" {
		parsed.Remarks = &originalText
	}

	entry, warnings := validate.Entry(parsed, entryType, e.clock())
	entry, extra := validate.Sanitize(entry)
	warnings = append(warnings, extra...)
	return entry, warnings
}

// batchIndexWarning prefixes a warning with the entry index it belongs to.
func batchIndexWarning(index int, warning string) string {
	return fmt.Sprintf("Entry %d: %s", index, warning)
}
