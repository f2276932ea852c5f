// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// EntryType identifies whether an entry records a sale or a purchase.
type EntryType string

// Entry type constants.
const (
	TypeSales    EntryType = "Sales"
	TypePurchase EntryType = "Purchase"
	TypeUnknown  EntryType = ""
)

// ParsedEntry is a candidate transaction produced by either the structured
// parser or the AI extractor. Fields are pointers because the source text
// may legitimately omit any of them.
type ParsedEntry struct {
	Client   *string
	Location *string
	Orders   *int
	Amount   *int
	Remarks  *string
}

// IsComplete reports whether the entry carries the three fields required
// before it can be saved: client, orders, and amount.
func (e ParsedEntry) IsComplete() bool {
	return e.Client != nil && *e.Client != "" && e.Orders != nil && e.Amount != nil
}

// ValidatedEntry is a ParsedEntry after sanitization. All fields are
// concrete values; anything missing from the parse has been defaulted and
// reported as a warning. Created once per accepted message and never
// mutated afterward.
type ValidatedEntry struct {
	Date     time.Time
	Client   string
	Location string
	Remarks  string
	Type     EntryType
	Orders   int
	Amount   int
}

// DetectEntryType guesses whether free text describes a sale or a purchase
// from its verbs. Returns TypeUnknown when neither vocabulary matches.
func DetectEntryType(text string) EntryType {
	lower := strings.ToLower(text)

	salesWords := []string{"sold", "sale", "sales", "order", "dealt"}
	purchaseWords := []string{"purchase", "purchased", "bought", "procured", "acquired"}

	for _, w := range salesWords {
		if strings.Contains(lower, w) {
			return TypeSales
		}
	}
	for _, w := range purchaseWords {
		if strings.Contains(lower, w) {
			return TypePurchase
		}
	}
	return TypeUnknown
}

// StringPtr returns a pointer to s. Convenience for building ParsedEntry
// values in callers and tests.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
