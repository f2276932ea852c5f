package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rsawant/fieldledger/internal/model"
	"github.com/rsawant/fieldledger/internal/ratelimit"
)

const promptTemplate = `You are an intelligent assistant for a pharmaceutical company's internal sales and purchase tracking bot.

Your task is to extract structured information from unstructured or casually written human messages.

Field staff send updates via Telegram. These can be messy, semi-structured, or casual language.

Extract values for the following schema:
{
  "client": "Name of the pharmacy or vendor, e.g. Apollo Pharmacy",
  "location": "Area of sale/purchase, e.g. Chembur",
  "orders": Number of total items/units (e.g. 8 if '3 boxes + 5 bottles'),
  "amount": Numeric value of amount in INR (e.g. ₹24000), strip currency and commas,
  "remarks": Exact text from user (no paraphrasing)
}

RULES:
1. Respond ONLY with the JSON. No text before/after.
2. If a field is missing, assign null.
3. Do NOT assume. Only extract what's mentioned.
4. Format numbers properly (e.g., ₹24,000 becomes 24000).
5. For ORDERS: if multiple items are mentioned (e.g., "3 boxes + 5 bottles"), sum them to a single number (8).
6. For ORDERS: if quantities are unclear ("some tablets"), use null.
7. No code blocks, markdown, or explanation. Just clean JSON.

EXAMPLES:
Input: "Sold 3 boxes of paracetamol and 5 bottles of syrup to Apollo for ₹25000"
Output: {"client": "Apollo", "location": null, "orders": 8, "amount": 25000, "remarks": "Sold 3 boxes of paracetamol and 5 bottles of syrup to Apollo for ₹25000"}

Input: "Client: XYZ Hospital, Location: Mumbai, Orders: 10 tablets + 5 injections, Amount: ₹15000, Remarks: urgent delivery"
Output: {"client": "XYZ Hospital", "location": "Mumbai", "orders": 15, "amount": 15000, "remarks": "urgent delivery"}

Message:
%s

Output:`

const (
	defaultCallTimeout = 25 * time.Second

	// How long an extraction blocks waiting for a rate-limited key slot to
	// free up before giving up. Minute windows roll quickly, so a short
	// wait often rescues a burst.
	defaultKeyWait = 5 * time.Second
)

var requiredKeys = []string{"client", "location", "orders", "amount", "remarks"}

// Extractor wraps the LLM call that turns free text into a ParsedEntry.
// Each extraction is exactly one request, routed through the rate limiter.
// All failure modes (transport, malformed JSON, missing keys) are non-fatal
// and reported as a nil entry.
type Extractor struct {
	clients map[string]Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	order   []string
	timeout time.Duration
	keyWait time.Duration
}

// NewExtractor creates an extractor over the per-key clients. The limiter
// decides which key serves each request.
func NewExtractor(clients map[string]Client, limiter *ratelimit.Limiter, logger *slog.Logger, timeout time.Duration) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	// Preference order follows the limiter, restricted to slots that
	// actually have a client configured.
	order := make([]string, 0, len(clients))
	for _, name := range limiter.KeyNames() {
		if _, ok := clients[name]; ok {
			order = append(order, name)
		}
	}

	return &Extractor{
		clients: clients,
		limiter: limiter,
		logger:  logger,
		order:   order,
		timeout: timeout,
		keyWait: defaultKeyWait,
	}
}

// Keys returns the configured key slots in preference order.
func (e *Extractor) Keys() []string {
	keys := make([]string, len(e.order))
	copy(keys, e.order)
	return keys
}

// Extract parses free text into a ParsedEntry using the first configured
// key. Returns nil when no key is available or the response is unusable.
func (e *Extractor) Extract(ctx context.Context, text string) *model.ParsedEntry {
	preferred := ""
	if len(e.order) > 0 {
		preferred = e.order[0]
	}
	return e.ExtractWithKey(ctx, text, preferred)
}

// ExtractWithKey is Extract with an explicit preferred key slot; the batch
// orchestrator uses it to spread concurrent extractions across keys. If the
// preferred key is rate limited, any available key substitutes.
func (e *Extractor) ExtractWithKey(ctx context.Context, text, preferred string) *model.ParsedEntry {
	key := e.pickKey(preferred)
	if key == "" {
		waited, err := e.limiter.WaitForKey(ctx, preferred, e.keyWait)
		if err != nil {
			e.logger.Warn("all API keys are rate limited, skipping extraction", "error", err)
			return nil
		}
		key = e.pickKey(waited)
		if key == "" {
			return nil
		}
	}

	client, ok := e.clients[key]
	if !ok {
		e.logger.Error("no client configured for key slot", "key", key)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := fmt.Sprintf(promptTemplate, text)
	raw, err := client.Generate(callCtx, prompt)
	if err != nil {
		e.limiter.RecordRequest(key, false, err.Error())
		e.logger.Warn("extraction call failed", "key", key, "error", err)
		return nil
	}
	e.limiter.RecordRequest(key, true, "")

	entry, err := parseExtraction(raw)
	if err != nil {
		e.logger.Warn("unusable extraction response", "key", key, "error", err)
		return nil
	}

	e.logger.Info("entry extracted", "key", key)
	return entry
}

// pickKey returns the preferred key if usable, otherwise the first
// available key, otherwise "".
func (e *Extractor) pickKey(preferred string) string {
	if preferred != "" && e.limiter.CanUseKey(preferred) {
		if _, ok := e.clients[preferred]; ok {
			return preferred
		}
	}
	for _, key := range e.limiter.AvailableKeys() {
		if _, ok := e.clients[key]; ok {
			if key != preferred {
				e.logger.Info("switched key due to rate limiting", "key", key)
			}
			return key
		}
	}
	return ""
}

// parseExtraction cleans and decodes a raw model response. All five schema
// keys must be present; their values may be null.
func parseExtraction(raw string) (*model.ParsedEntry, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}

	for _, k := range requiredKeys {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("response missing required key %q", k)
		}
	}

	entry := &model.ParsedEntry{
		Client:   decodeString(fields["client"]),
		Location: decodeString(fields["location"]),
		Remarks:  decodeString(fields["remarks"]),
		Orders:   decodeNumber(fields["orders"]),
		Amount:   decodeNumber(fields["amount"]),
	}
	return entry, nil
}

// stripCodeFence removes a wrapping markdown code fence and an optional
// leading "json" language tag, which models emit despite instructions.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}
	return s
}

func decodeString(raw json.RawMessage) *string {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if s != nil {
		trimmed := strings.TrimSpace(*s)
		s = &trimmed
	}
	return s
}

// decodeNumber accepts a JSON number, a null, or a string carrying currency
// symbols and thousands separators, coercing everything to an int.
func decodeNumber(raw json.RawMessage) *int {
	var n *float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == nil {
			return nil
		}
		v := int(*n)
		return &v
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	cleaned := strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", ",", "", " ", "").Replace(s)
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}
