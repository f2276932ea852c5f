// Package bot turns incoming Telegram messages into stored ledger entries
// and user-facing replies. It owns the glue between the processing engine,
// the registry, the geocoder, and the sheet store.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rsawant/fieldledger/internal/common"
	"github.com/rsawant/fieldledger/internal/engine"
	"github.com/rsawant/fieldledger/internal/model"
	"github.com/rsawant/fieldledger/internal/service"
)

// Message is one incoming text message with its sender context. Latitude
// and Longitude are set when the user shared a live location.
type Message struct {
	Latitude  *float64
	Longitude *float64
	UserName  string
	Text      string
	EntryType model.EntryType
	UserID    int64
}

// Handler processes messages end to end: classify, parse, validate, store,
// reply.
type Handler struct {
	engine   *engine.Engine
	store    service.Store
	registry service.Registry
	geocoder service.Geocoder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewHandler creates a message handler. geocoder may be nil; GPS columns
// then fall back to raw coordinates.
func NewHandler(eng *engine.Engine, store service.Store, registry service.Registry, geocoder service.Geocoder, logger *slog.Logger) *Handler {
	return &Handler{
		engine:   eng,
		store:    store,
		registry: registry,
		geocoder: geocoder,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString()[:8] },
	}
}

// HandleMessage processes one message and returns the reply text.
func (h *Handler) HandleMessage(ctx context.Context, msg Message) string {
	registered, err := h.registry.IsRegistered(ctx, msg.UserID)
	if err != nil {
		h.logger.Error("registration lookup failed", "user_id", msg.UserID, "error", err)
		return msgInternalError
	}
	if !registered {
		return msgNotRegistered
	}

	company, err := h.registry.Company(ctx, msg.UserID)
	if err != nil {
		h.logger.Error("company lookup failed", "user_id", msg.UserID, "error", err)
		return msgInternalError
	}

	entryType := msg.EntryType
	if entryType == model.TypeUnknown {
		entryType = model.DetectEntryType(msg.Text)
	}
	if entryType == model.TypeUnknown {
		return msgChooseType
	}

	if engine.DetectBatch(msg.Text) {
		return h.handleBatch(ctx, msg, entryType, company)
	}
	return h.handleSingle(ctx, msg, entryType, company)
}

func (h *Handler) handleSingle(ctx context.Context, msg Message, entryType model.EntryType, company string) string {
	entry, warnings, err := h.engine.ProcessMessage(ctx, msg.Text, entryType)
	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			return userErr.UserMessage
		}
		if errors.Is(err, common.ErrExtractionFailure) || errors.Is(err, common.ErrParseFailure) {
			return msgParseHelp
		}
		h.logger.Error("message processing failed", "user_id", msg.UserID, "error", err)
		return msgInternalError
	}

	row := h.buildRow(ctx, msg, *entry, company)
	if !h.store.Append(ctx, row, company) {
		h.logger.Error("failed to store entry", "user_id", msg.UserID, "company", company)
		return msgStoreFailure
	}

	return formatConfirmation(msg.UserName, *entry, warnings, h.now())
}

func (h *Handler) handleBatch(ctx context.Context, msg Message, entryType model.EntryType, company string) string {
	result, err := h.engine.ProcessBatch(ctx, msg.Text, entryType)
	if err != nil && errors.Is(err, common.ErrBatchTooLarge) {
		return fmt.Sprintf(msgBatchTooLarge, result.Total)
	}
	if err != nil {
		h.logger.Error("batch processing failed", "user_id", msg.UserID, "error", err)
		return msgInternalError
	}

	stored := result.SavedEntries[:0]
	for _, saved := range result.SavedEntries {
		row := h.buildRow(ctx, msg, saved.Entry, company)
		if h.store.Append(ctx, row, company) {
			stored = append(stored, saved)
			continue
		}
		result.FailedEntries = append(result.FailedEntries, model.FailedEntry{
			Index:  saved.Index,
			Text:   saved.OriginalText,
			Reason: "storage_failed",
		})
		result.Failed++
	}
	result.SavedEntries = stored
	result.Processed = len(stored)

	return formatBatchResponse(result)
}

// buildRow assembles the sheet row for one validated entry.
func (h *Handler) buildRow(ctx context.Context, msg Message, entry model.ValidatedEntry, company string) []any {
	now := h.now()
	return []any{
		h.newID(),
		now.Format("02-01-2006"),
		msg.UserName,
		string(entry.Type),
		entry.Client,
		entry.Location,
		entry.Orders,
		entry.Amount,
		entry.Remarks,
		msg.UserID,
		now.Format("15:04"),
		company,
		h.gpsColumn(ctx, msg),
		now.Format(time.RFC3339),
	}
}

// gpsColumn resolves the shared location to a readable address, falling
// back to raw coordinates when geocoding is unavailable.
func (h *Handler) gpsColumn(ctx context.Context, msg Message) string {
	if msg.Latitude == nil || msg.Longitude == nil {
		return ""
	}

	lat, lon := *msg.Latitude, *msg.Longitude
	if h.geocoder != nil {
		if addr := h.geocoder.ReverseGeocode(ctx, lat, lon); addr != nil && addr.ShortAddress != "" {
			return addr.ShortAddress
		}
	}
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}
