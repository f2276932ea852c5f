// Package validate normalizes parsed entries into records that are always
// safe to persist. It never fails: missing or malformed data degrades to a
// default value plus a warning, so all data-quality signal lives in the
// warnings list rather than in errors.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rsawant/fieldledger/internal/model"
)

const (
	maxTextLength   = 200
	maxNumericValue = 1000000
)

var dangerousChars = regexp.MustCompile(`[<>"';]`)

// Entry coerces a ParsedEntry into a ValidatedEntry, collecting a warning
// for everything it had to default or that looks suspicious. Running it on
// an already-validated entry produces the same output.
func Entry(parsed model.ParsedEntry, entryType model.EntryType, now time.Time) (model.ValidatedEntry, []string) {
	var warnings []string

	orders := coerceNumber(parsed.Orders, "orders", &warnings)
	amount := coerceNumber(parsed.Amount, "amount", &warnings)

	client := coerceText(parsed.Client, "client", &warnings)
	if parsed.Client != nil && client == "" {
		warnings = append(warnings, "Empty client field")
	}
	location := coerceText(parsed.Location, "location", &warnings)
	if parsed.Location != nil && location == "" {
		warnings = append(warnings, "Empty location field")
	}
	remarks := coerceText(parsed.Remarks, "remarks", &warnings)

	return model.ValidatedEntry{
		Client:   client,
		Location: location,
		Remarks:  remarks,
		Orders:   orders,
		Amount:   amount,
		Type:     entryType,
		Date:     now,
	}, warnings
}

func coerceNumber(v *int, field string, warnings *[]string) int {
	if v == nil {
		*warnings = append(*warnings, fmt.Sprintf("Missing %s, defaulting to 0", field))
		return 0
	}
	if *v < 0 {
		*warnings = append(*warnings, fmt.Sprintf("Negative %s value: %d", field, *v))
	}
	return *v
}

func coerceText(v *string, field string, warnings *[]string) string {
	if v == nil {
		*warnings = append(*warnings, fmt.Sprintf("Missing %s", field))
		return ""
	}
	return strings.TrimSpace(*v)
}

// Sanitize scrubs a validated entry for persistence: strips characters that
// could break downstream consumers, caps text length, and zeroes numeric
// values outside the plausible range. Returns any additional warnings.
func Sanitize(entry model.ValidatedEntry) (model.ValidatedEntry, []string) {
	var warnings []string

	entry.Client = sanitizeText(entry.Client)
	entry.Location = sanitizeText(entry.Location)
	entry.Remarks = sanitizeText(entry.Remarks)

	if entry.Orders < 0 || entry.Orders > maxNumericValue {
		warnings = append(warnings, fmt.Sprintf("Suspicious orders value: %d", entry.Orders))
		entry.Orders = 0
	}
	if entry.Amount < 0 || entry.Amount > maxNumericValue {
		warnings = append(warnings, fmt.Sprintf("Suspicious amount value: %d", entry.Amount))
		entry.Amount = 0
	}

	return entry, warnings
}

func sanitizeText(s string) string {
	cleaned := strings.TrimSpace(dangerousChars.ReplaceAllString(s, ""))
	if len(cleaned) > maxTextLength {
		cleaned = cleaned[:maxTextLength]
	}
	return cleaned
}
